package models

import "time"

// EventWindow is the inclusive time range during which claims are accepted.
type EventWindow struct {
	Start time.Time
	End   time.Time
}

// Status is the read-only snapshot returned by the status endpoint.
type Status struct {
	IsOpen    bool            `json:"isOpen"`
	Remaining RemainingPrizes `json:"remaining"`
	Window    WindowLocal     `json:"window"`
}

type RemainingPrizes struct {
	Tier1 int `json:"tier1"`
	Tier2 int `json:"tier2"`
	Tier3 int `json:"tier3"`
	Total int `json:"total"`
}

type WindowLocal struct {
	StartLocal string `json:"startLocal"`
	EndLocal   string `json:"endLocal"`
}
