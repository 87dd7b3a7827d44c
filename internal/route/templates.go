package route

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/splitkeeper/internal/condition"
	"github.com/roach88/splitkeeper/internal/ir"
)

// Trigger templates for the common route building blocks.

func eq(pairs ...any) map[string]ir.IRValue {
	m := make(map[string]ir.IRValue, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		v, err := ir.FromAny(pairs[i+1])
		if err != nil {
			panic(fmt.Sprintf("template value for %v: %v", pairs[i], err))
		}
		m[pairs[i].(string)] = v
	}
	return m
}

// Overworld fires on returning to the chapter select map.
func Overworld() *Trigger {
	return NewTrigger("Return to map", condition.Structured(eq("chapter", -1), nil))
}

// ChapterFinish fires on completing the given chapter and side.
func ChapterFinish(label string, chapter, mode int) *Trigger {
	return NewTrigger("finish "+label,
		condition.Structured(eq("chapter", chapter, "mode", mode, "chapter_complete", true), nil))
}

// Complete fires on completing whatever chapter is current.
func Complete() *Trigger {
	return NewTrigger("Chapter complete", condition.Structured(eq("chapter_complete", true), nil))
}

// Cassette fires on collecting the chapter's cassette.
func Cassette() *Trigger {
	return NewTrigger("Get cassette", condition.Structured(eq("chapter_cassette", true), nil))
}

// Heart fires on collecting the chapter's crystal heart.
func Heart() *Trigger {
	return NewTrigger("Get heart", condition.Structured(eq("chapter_heart", true), nil))
}

// Berries fires on reaching n strawberries in the file.
func Berries(n int) *Trigger {
	return NewTrigger(fmt.Sprintf("%d berries", n), condition.Structured(eq("file_strawberries", n), nil))
}

// Room fires on entering the named room.
func Room(name string) *Trigger {
	return NewTrigger("Room "+name, condition.Structured(eq("level_name", name), nil))
}

// Checkpoint fires on unlocking checkpoint n.
func Checkpoint(n int) *Trigger {
	return NewTrigger(fmt.Sprintf("Reach checkpoint %d", n), condition.Structured(eq("chapter_checkpoints", n), nil))
}

// DefaultReset returns the reset trigger the generated routes carry: a
// fresh file for file timing, or restarting the given chapter for chapter
// timing. Routes loaded from a document keep whatever reset they declare.
func DefaultReset(timeField TimeField, chapter, mode int) *Trigger {
	if timeField == FileTime {
		return NewTrigger("reset",
			condition.Structured(eq("chapter", 0), map[string]int64{"file_time": 1000}))
	}
	return NewTrigger("reset",
		condition.Structured(eq("chapter", chapter, "mode", mode), map[string]int64{"chapter_time": 1000}))
}

// ChapterNames are the display names of chapters 0 through 9, indexed by
// the number a player uses (prologue is 0, farewell is 9).
var ChapterNames = []string{
	"Prologue", "City", "Site", "Resort", "Ridge", "Temple",
	"Reflection", "Summit", "Core", "Farewell",
}

// ParseMapName converts a chapter label such as "1a", "7b", "prologue" or
// "farewell" into the game's chapter and mode numbers. The game numbers the
// epilogue as chapter 8, so player chapters 8 and up are shifted by one.
func ParseMapName(label string) (chapter, mode int, err error) {
	switch strings.ToLower(label) {
	case "farewell":
		return 10, 0, nil
	case "prologue":
		return 0, 0, nil
	}

	num, side := label, "a"
	if _, err := strconv.Atoi(label); err != nil && len(label) > 0 {
		num, side = label[:len(label)-1], strings.ToLower(label[len(label)-1:])
	}
	switch side {
	case "a", "b", "c":
		mode = int(side[0] - 'a')
	default:
		return 0, 0, fmt.Errorf("map name %q: side must be a, b or c", label)
	}
	chapter, err = strconv.Atoi(num)
	if err != nil || chapter < 0 {
		return 0, 0, fmt.Errorf("map name %q: invalid chapter number", label)
	}
	if chapter >= 8 {
		chapter++
	}
	return chapter, mode, nil
}

// ChapterRoute builds a full-game route from the chapters completed during
// the run, in order. Each chapter contributes a finish trigger, a return to
// the map, and a level-0 split.
func ChapterRoute(name string, labels []string) (*Route, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("chapter route needs at least one chapter")
	}
	var pieces []Piece
	for _, label := range labels {
		chapter, mode, err := ParseMapName(label)
		if err != nil {
			return nil, err
		}
		pieces = append(pieces,
			ChapterFinish(label, chapter, mode),
			Overworld(),
			NewSplit(0, chapterDisplayName(label, chapter, mode)),
		)
	}
	return New(name, FileTime, pieces, []string{"Chapter"}, DefaultReset(FileTime, 0, 0))
}

func chapterDisplayName(label string, chapter, mode int) string {
	number := chapter
	if number >= 9 {
		number--
	}
	if number < 0 || number >= len(ChapterNames) {
		return label
	}
	if chapter == 0 || chapter == 10 {
		return ChapterNames[number]
	}
	return fmt.Sprintf("%s %c", ChapterNames[number], 'A'+mode)
}

// ChapterName renders the snapshot's chapter and mode the way players
// write them ("1a", "Prologue", "Epilogue", "9" for farewell).
func ChapterName(chapter, mode int) string {
	switch chapter {
	case -1:
		return "Menu"
	case 0:
		return "Prologue"
	case 8:
		return "Epilogue"
	case 10:
		return "9"
	}
	number := chapter
	if number > 8 {
		number--
	}
	side := 'a'
	switch mode {
	case 1:
		side = 'b'
	case 2:
		side = 'c'
	}
	return fmt.Sprintf("%d%c", number, side)
}
