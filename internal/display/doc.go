// Package display renders a run for the operator.
//
// Stats computes the comparison figures for one split at one level. Rows
// and Window decide which (split, level) pairs are shown and in what order;
// Lines turns them into labelled columns. Text writes those lines as plain
// text and Terminal draws them on a tcell screen, which also supplies the
// live control keys.
package display
