// Package treemap implements the squarified treemap layout.
//
// # Overview
//
// A treemap divides a rectangle among weighted items so that each item's
// area is proportional to its weight. The squarified variant (Bruls, Huizing
// and van Wijk) keeps the resulting rectangles close to square by laying out
// rows along the shorter side of the space that is still free:
//
//  1. Sort items by weight, largest first.
//  2. Grow a row from the front of the remaining items while the worst
//     aspect ratio in the row keeps improving.
//  3. Commit the row as a strip along the shorter side, split proportionally.
//  4. Shrink the free space by the strip and repeat.
//
// # Usage
//
//	nodes, err := treemap.Layout([]treemap.Item{
//	    {Name: "Meeting", Value: 3, Color: "#F5A623"},
//	    {Name: "Chat features", Value: 1, Color: "#4A90E2"},
//	}, treemap.Rect{X1: 100, Y1: 100})
//
// Layout returns pure geometry in the units of the bounds it was given. It
// has no knowledge of pixels or output formats; [Rect.Scale] maps nodes into
// a target box.
//
// # Invalid Input
//
// Bounds with a non-positive or non-finite side, and items with a
// non-positive or non-finite value, are rejected with an error carrying
// errors.ErrCodeInvalidLayoutInput. Values are never clamped.
package treemap
