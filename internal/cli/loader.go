package cli

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/roach88/splitkeeper/internal/autosplitter"
	"github.com/roach88/splitkeeper/internal/compiler"
	"github.com/roach88/splitkeeper/internal/record"
	"github.com/roach88/splitkeeper/internal/route"
)

// Error code constants shared by all commands. Route validation codes
// (E100-E106) come from the compiler.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeSyntax      = "E100" // Document could not be parsed
)

// recordSet is where a route's personal best and golds live.
type recordSet struct {
	PB    string
	Golds string
}

// recordPaths derives the record files from the route path unless they
// are given: route.yaml keeps route.pb.yaml and route.golds.yaml beside it.
func recordPaths(routePath, pb, golds string) recordSet {
	stem := strings.TrimSuffix(routePath, filepath.Ext(routePath))
	if pb == "" {
		pb = stem + ".pb.yaml"
	}
	if golds == "" {
		golds = stem + ".golds.yaml"
	}
	return recordSet{PB: pb, Golds: golds}
}

// loadRoute compiles the route at path against the autosplitter fields.
func loadRoute(path string, allowExpressions bool) (*route.Route, error) {
	return compiler.Load(path, compiler.Options{
		AllowExpressions: allowExpressions,
		Fields:           autosplitter.Fields,
	})
}

// pinRouteIDs writes the derived split ids into the route file, so that
// renaming a split later keeps its records. It returns the number of ids
// written.
func pinRouteIDs(path string, allowExpressions bool) (int, error) {
	return compiler.PinFile(path, compiler.Options{
		AllowExpressions: allowExpressions,
		Fields:           autosplitter.Fields,
	})
}

// loadRecords reads both record files. Missing files are empty records.
func loadRecords(paths recordSet) (*record.Times, *record.Golds, error) {
	pb, err := record.LoadTimes(paths.PB)
	if err != nil {
		return nil, nil, LoadFailure(paths.PB, err)
	}
	golds, err := record.LoadGolds(paths.Golds)
	if err != nil {
		return nil, nil, LoadFailure(paths.Golds, err)
	}
	return pb, golds, nil
}

// routeProblems converts a route load error into validation errors. ok is
// false for errors that are not about the route's content, such as an
// unreadable file or an unsupported version.
func routeProblems(err error) (problems []compiler.ValidationError, ok bool) {
	var verrs compiler.ValidationErrors
	if errors.As(err, &verrs) {
		return verrs, true
	}
	var verr compiler.ValidationError
	if errors.As(err, &verr) {
		return []compiler.ValidationError{verr}, true
	}
	var cerr *compiler.CompileError
	if errors.As(err, &cerr) {
		line := 0
		if cerr.Pos.IsValid() {
			line = cerr.Pos.Line()
		}
		return []compiler.ValidationError{{
			Field:   cerr.Field,
			Message: cerr.Message,
			Code:    ErrCodeSyntax,
			Line:    line,
		}}, true
	}
	return nil, false
}
