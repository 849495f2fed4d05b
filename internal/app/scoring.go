package app

import (
	"strings"

	"lms-service/internal/domain"
)

// Evaluation is the graded result of one answer set against a quiz.
type Evaluation struct {
	Results        []domain.QuestionResult
	CorrectCount   int
	TotalQuestions int
	ScorePercent   int
}

// Evaluate grades answers against quiz. Unanswered questions, including ones
// answered with a blank option, count as wrong with no chosen option; answers
// for questions the quiz does not contain are ignored.
func Evaluate(quiz domain.QuizDefinition, answers []domain.Answer) (Evaluation, error) {
	total := len(quiz.Questions)
	if total == 0 {
		return Evaluation{}, domain.ErrInvalidQuizState
	}

	chosen := make(map[string]string, len(answers))
	for _, a := range answers {
		if strings.TrimSpace(a.OptionID) == "" {
			continue
		}
		if _, seen := chosen[a.QuestionID]; !seen {
			chosen[a.QuestionID] = a.OptionID
		}
	}

	eval := Evaluation{
		Results:        make([]domain.QuestionResult, 0, total),
		TotalQuestions: total,
	}
	for _, q := range quiz.Questions {
		result := domain.QuestionResult{
			QuestionID:    q.ID,
			QuestionText:  q.Text,
			Options:       q.Options,
			CorrectOption: q.CorrectOptionID,
			Explanation:   q.Explanation,
		}
		if optionID, ok := chosen[q.ID]; ok {
			pick := optionID
			result.ChosenOption = &pick
			result.IsCorrect = optionID == q.CorrectOptionID
		}
		if result.IsCorrect {
			eval.CorrectCount++
		}
		eval.Results = append(eval.Results, result)
	}
	eval.ScorePercent = domain.Percent(eval.CorrectCount, total)
	return eval, nil
}
