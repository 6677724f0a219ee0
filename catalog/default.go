package catalog

import "github.com/kuzowebsite/ider-surver/model"

// Default returns the built-in catalog, used when the store has none or
// cannot be reached.
func Default() []model.Question {
	return []model.Question{
		{
			ID:   1,
			Text: "How often do you use online services in your daily life?",
			Type: model.Single,
			Options: []model.Option{
				{ID: 1, Text: "Every day"},
				{ID: 2, Text: "A few times a week"},
				{ID: 3, Text: "A few times a month"},
				{ID: 4, Text: "Rarely or never"},
			},
		},
		{
			ID:   2,
			Text: "Which devices do you use to go online?",
			Type: model.Multiple,
			Options: []model.Option{
				{ID: 1, Text: "Smartphone"},
				{ID: 2, Text: "Laptop"},
				{ID: 3, Text: "Desktop computer"},
				{ID: 4, Text: "Tablet"},
			},
			AllowCustom:    true,
			CustomOptionID: 5,
		},
		{
			ID:   3,
			Text: "What matters most to you when choosing a service?",
			Type: model.Single,
			Options: []model.Option{
				{ID: 1, Text: "Price"},
				{ID: 2, Text: "Speed"},
				{ID: 3, Text: "Security"},
			},
			AllowCustom:    true,
			CustomOptionID: 4,
		},
		{
			ID:   4,
			Text: "Which of these features would you like to see improved?",
			Type: model.Multiple,
			Options: []model.Option{
				{ID: 1, Text: "Search"},
				{ID: 2, Text: "Notifications"},
				{ID: 3, Text: "Payments"},
				{ID: 4, Text: "Customer support"},
			},
		},
		{
			ID:   5,
			Text: "How likely are you to recommend us to a friend?",
			Type: model.Single,
			Options: []model.Option{
				{ID: 1, Text: "Very likely"},
				{ID: 2, Text: "Somewhat likely"},
				{ID: 3, Text: "Not sure"},
				{ID: 4, Text: "Unlikely"},
			},
		},
	}
}
