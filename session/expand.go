package session

import "github.com/kuzowebsite/ider-surver/model"

// Expand turns selected option ids into answer records, taking labels from
// catalog by id. Questions missing from catalog or without a selection
// get no entry. Custom text is attached to the custom slot only.
func Expand(catalog []model.Question, answers map[int][]int, custom map[int]string) map[int]model.Answer {
	out := make(map[int]model.Answer, len(answers))
	for questionID, selected := range answers {
		if len(selected) == 0 {
			continue
		}
		q, ok := model.FindQuestion(catalog, questionID)
		if !ok {
			continue
		}

		records := make([]model.AnswerRecord, 0, len(selected))
		for _, optionID := range selected {
			r := model.AnswerRecord{OptionID: optionID, Text: q.Label(optionID)}
			if q.IsCustom(optionID) {
				r.CustomText = custom[questionID]
			}
			records = append(records, r)
		}
		if q.Type == model.Single {
			records = records[:1]
		}

		out[questionID] = model.Answer{
			QuestionText: q.Text,
			Type:         q.Type,
			Records:      records,
		}
	}
	return out
}
