package autosplitter

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/roach88/splitkeeper/internal/ir"
)

// Size is the length of one snapshot record in bytes.
const Size = 176

// Byte offsets of the record fields. The record is native-aligned and
// little-endian; the first 8 bytes hold a pointer to the managed level
// string and are ignored.
const (
	offChapter             = 8
	offMode                = 12
	offTimerActive         = 16
	offChapterStarted      = 17
	offChapterComplete     = 18
	offChapterTime         = 24
	offChapterStrawberries = 32
	offChapterCassette     = 36
	offChapterHeart        = 37
	offFileTime            = 40
	offFileStrawberries    = 48
	offFileCassettes       = 52
	offFileHearts          = 56
	offCheckpoints         = 64
	offInCutscene          = 68
	offDeathCount          = 72
	offLevelName           = 76
	levelNameLen           = 100
)

// ticksPerMilli converts the game's 100ns timer ticks to milliseconds.
const ticksPerMilli = 10000

// Fields is the schema of every snapshot Decode produces. Routes are
// validated against it.
var Fields = ir.FieldSet{
	"chapter":              ir.KindInt,
	"mode":                 ir.KindInt,
	"timer_active":         ir.KindBool,
	"chapter_started":      ir.KindBool,
	"chapter_complete":     ir.KindBool,
	"chapter_time":         ir.KindInt,
	"chapter_strawberries": ir.KindInt,
	"chapter_cassette":     ir.KindBool,
	"chapter_heart":        ir.KindBool,
	"file_time":            ir.KindInt,
	"file_strawberries":    ir.KindInt,
	"file_cassettes":       ir.KindInt,
	"file_hearts":          ir.KindInt,
	"chapter_checkpoints":  ir.KindInt,
	"in_cutscene":          ir.KindBool,
	"death_count":          ir.KindInt,
	"level_name":           ir.KindString,
	"menu":                 ir.KindBool,
	"chapter_name":         ir.KindString,
}

// Record is the decoded form of one snapshot record.
type Record struct {
	Chapter             int32
	Mode                int32
	TimerActive         bool
	ChapterStarted      bool
	ChapterComplete     bool
	ChapterTime         int64 // ms
	ChapterStrawberries uint32
	ChapterCassette     bool
	ChapterHeart        bool
	FileTime            int64 // ms
	FileStrawberries    uint32
	FileCassettes       uint32
	FileHearts          uint32
	Checkpoints         uint32
	InCutscene          bool
	DeathCount          int32
	LevelName           string
}

// Decode parses one record. Extra trailing bytes are ignored.
func Decode(b []byte) (Record, error) {
	if len(b) < Size {
		return Record{}, fmt.Errorf("snapshot record is %d bytes, want %d", len(b), Size)
	}
	le := binary.LittleEndian

	name := b[offLevelName : offLevelName+levelNameLen]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}

	return Record{
		Chapter:             int32(le.Uint32(b[offChapter:])),
		Mode:                int32(le.Uint32(b[offMode:])),
		TimerActive:         b[offTimerActive] != 0,
		ChapterStarted:      b[offChapterStarted] != 0,
		ChapterComplete:     b[offChapterComplete] != 0,
		ChapterTime:         int64(le.Uint64(b[offChapterTime:]) / ticksPerMilli),
		ChapterStrawberries: le.Uint32(b[offChapterStrawberries:]),
		ChapterCassette:     b[offChapterCassette] != 0,
		ChapterHeart:        b[offChapterHeart] != 0,
		FileTime:            int64(le.Uint64(b[offFileTime:]) / ticksPerMilli),
		FileStrawberries:    le.Uint32(b[offFileStrawberries:]),
		FileCassettes:       le.Uint32(b[offFileCassettes:]),
		FileHearts:          le.Uint32(b[offFileHearts:]),
		Checkpoints:         le.Uint32(b[offCheckpoints:]),
		InCutscene:          b[offInCutscene] != 0,
		DeathCount:          int32(le.Uint32(b[offDeathCount:])),
		LevelName:           string(name),
	}, nil
}

// Encode writes rec in the record layout. Times are stored as 100ns ticks.
// Level names longer than the field are truncated.
func Encode(rec Record) []byte {
	b := make([]byte, Size)
	le := binary.LittleEndian

	le.PutUint32(b[offChapter:], uint32(rec.Chapter))
	le.PutUint32(b[offMode:], uint32(rec.Mode))
	b[offTimerActive] = boolByte(rec.TimerActive)
	b[offChapterStarted] = boolByte(rec.ChapterStarted)
	b[offChapterComplete] = boolByte(rec.ChapterComplete)
	le.PutUint64(b[offChapterTime:], uint64(rec.ChapterTime)*ticksPerMilli)
	le.PutUint32(b[offChapterStrawberries:], rec.ChapterStrawberries)
	b[offChapterCassette] = boolByte(rec.ChapterCassette)
	b[offChapterHeart] = boolByte(rec.ChapterHeart)
	le.PutUint64(b[offFileTime:], uint64(rec.FileTime)*ticksPerMilli)
	le.PutUint32(b[offFileStrawberries:], rec.FileStrawberries)
	le.PutUint32(b[offFileCassettes:], rec.FileCassettes)
	le.PutUint32(b[offFileHearts:], rec.FileHearts)
	le.PutUint32(b[offCheckpoints:], rec.Checkpoints)
	b[offInCutscene] = boolByte(rec.InCutscene)
	le.PutUint32(b[offDeathCount:], uint32(rec.DeathCount))
	copy(b[offLevelName:offLevelName+levelNameLen-1], rec.LevelName)
	return b
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}

// Snapshot converts rec into the named-field form triggers evaluate.
func (rec Record) Snapshot() ir.Snapshot {
	return ir.Snapshot{
		"chapter":              ir.IRInt(rec.Chapter),
		"mode":                 ir.IRInt(rec.Mode),
		"timer_active":         ir.IRBool(rec.TimerActive),
		"chapter_started":      ir.IRBool(rec.ChapterStarted),
		"chapter_complete":     ir.IRBool(rec.ChapterComplete),
		"chapter_time":         ir.IRInt(rec.ChapterTime),
		"chapter_strawberries": ir.IRInt(rec.ChapterStrawberries),
		"chapter_cassette":     ir.IRBool(rec.ChapterCassette),
		"chapter_heart":        ir.IRBool(rec.ChapterHeart),
		"file_time":            ir.IRInt(rec.FileTime),
		"file_strawberries":    ir.IRInt(rec.FileStrawberries),
		"file_cassettes":       ir.IRInt(rec.FileCassettes),
		"file_hearts":          ir.IRInt(rec.FileHearts),
		"chapter_checkpoints":  ir.IRInt(rec.Checkpoints),
		"in_cutscene":          ir.IRBool(rec.InCutscene),
		"death_count":          ir.IRInt(rec.DeathCount),
		"level_name":           ir.IRString(rec.LevelName),
		"menu":                 ir.IRBool(rec.Chapter == -1),
		"chapter_name":         ir.IRString(ChapterName(int(rec.Chapter), int(rec.Mode))),
	}
}

// ChapterName returns the short display name of a chapter and side:
// "Prologue", "Epilogue", "9" for Farewell, otherwise the chapter number
// followed by a, b or c.
func ChapterName(chapter, mode int) string {
	switch chapter {
	case 0:
		return "Prologue"
	case 8:
		return "Epilogue"
	case 10:
		return "9"
	}
	side := "c"
	switch mode {
	case 0:
		side = "a"
	case 1:
		side = "b"
	}
	return fmt.Sprintf("%d%s", chapter, side)
}
