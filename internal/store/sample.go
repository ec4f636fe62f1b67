package store

import "iserve/internal/model"

// sampleData seeds the store so the front-end is usable without a live
// backend. Six demands cover every service category; two responses belong
// to the demo user.
func sampleData() ([]model.Demand, []model.ServiceResponse) {
	demands := []model.Demand{
		{
			ID:          "d-1001",
			UserID:      "u-101",
			Type:        "plumbing-repair",
			LocationID:  1,
			Title:       "Kitchen sink is leaking",
			Description: "Water drips under the kitchen sink whenever the tap runs. Need someone with tools this week.",
			Address:     "12 Maple Court, Building 3",
			Status:      model.DemandPending,
			CreateTime:  "2026-07-02T09:15:00Z",
			UpdateTime:  "2026-07-02T09:15:00Z",
		},
		{
			ID:          "d-1002",
			UserID:      "u-102",
			Type:        "elder-care",
			LocationID:  2,
			Title:       "Companion visit for my grandmother",
			Description: "Looking for an hour of company and light help on weekday afternoons.",
			Address:     "48 Riverside Lane",
			Status:      model.DemandInProgress,
			CreateTime:  "2026-07-05T14:30:00Z",
			UpdateTime:  "2026-07-12T10:00:00Z",
		},
		{
			ID:          "d-1003",
			UserID:      "u-101",
			Type:        "cleaning",
			LocationID:  3,
			Title:       "Deep clean before moving in",
			Description: "Two-bedroom apartment, empty, needs floors and windows done.",
			Address:     "7 Orchard Street, Apt 5B",
			Status:      model.DemandCompleted,
			CreateTime:  "2026-06-20T08:00:00Z",
			UpdateTime:  "2026-06-28T16:45:00Z",
		},
		{
			ID:          "d-1004",
			UserID:      "u-103",
			Type:        "medical-escort",
			LocationID:  4,
			Title:       "Escort to hospital appointment",
			Description: "Need someone to accompany my father to his check-up next Tuesday morning.",
			Address:     "23 Hillside Avenue",
			Status:      model.DemandPending,
			CreateTime:  "2026-07-10T11:20:00Z",
			UpdateTime:  "2026-07-10T11:20:00Z",
		},
		{
			ID:          "d-1005",
			UserID:      "u-102",
			Type:        "meal-delivery",
			LocationID:  5,
			Title:       "Lunch delivery on weekdays",
			Description: "Warm lunch for an elderly neighbor, Monday through Friday around noon.",
			Address:     "48 Riverside Lane",
			Status:      model.DemandPending,
			CreateTime:  "2026-07-11T12:00:00Z",
			UpdateTime:  "2026-07-11T12:00:00Z",
		},
		{
			ID:          "d-1006",
			UserID:      "u-104",
			Type:        "school-transport",
			LocationID:  6,
			Title:       "School pick-up help needed",
			Description: "Pick up two kids from the primary school at 3pm and walk them home.",
			Address:     "Primary School, North Gate",
			Status:      model.DemandInProgress,
			CreateTime:  "2026-07-08T07:45:00Z",
			UpdateTime:  "2026-07-09T18:30:00Z",
		},
	}

	responses := []model.ServiceResponse{
		{
			ID:           "r-2001",
			DemandID:     "d-1002",
			UserID:       "u-demo",
			Content:      "I live nearby and visit my own grandparents on that street. Happy to help on Tuesdays and Thursdays.",
			Status:       model.ResponseAccepted,
			ResponseTime: "2026-07-06T09:00:00Z",
		},
		{
			ID:           "r-2002",
			DemandID:     "d-1004",
			UserID:       "u-demo",
			Content:      "I am a retired nurse and can accompany your father to the hospital.",
			Status:       model.ResponsePendingReview,
			ResponseTime: "2026-07-10T15:30:00Z",
		},
	}

	return demands, responses
}
