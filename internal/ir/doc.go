// Package ir provides the value types shared by every splitkeeper package.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - NO float types anywhere - snapshot numbers and times are int64
//   - Snapshot values compare by exact type and value, never coerced
//   - All JSON tags use snake_case
package ir
