package heatmap

import "encoding/json"

// RenderJSON encodes a *QuarterView or *DayView as indented JSON.
func RenderJSON(v View) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
