package domain

import "time"

// Option represents a possible answer for a question.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question models an MCQ question with exactly one correct option.
type Question struct {
	ID              string   `json:"id"`
	Text            string   `json:"text"`
	Options         []Option `json:"options"`
	CorrectOptionID string   `json:"correctOptionId,omitempty"`
	Explanation     string   `json:"explanation,omitempty"`
}

// QuizDefinition is the ordered question list attached to one topic.
type QuizDefinition struct {
	Ref       TopicRef   `json:"ref"`
	Questions []Question `json:"questions"`
}

// Answer is one chosen option from a student.
type Answer struct {
	QuestionID string `json:"questionId"`
	OptionID   string `json:"optionId"`
}

// QuestionResult is the graded outcome of one question. ChosenOption is nil
// when the student left the question unanswered.
type QuestionResult struct {
	QuestionID    string   `json:"questionId"`
	QuestionText  string   `json:"questionText"`
	Options       []Option `json:"options"`
	ChosenOption  *string  `json:"chosenOption"`
	CorrectOption string   `json:"correctOption"`
	IsCorrect     bool     `json:"isCorrect"`
	Explanation   string   `json:"explanation,omitempty"`
}

// QuizSubmission is one immutable attempt at a topic's quiz.
type QuizSubmission struct {
	ID                string           `json:"id"`
	StudentID         string           `json:"studentId"`
	CourseID          string           `json:"courseId"`
	ChapterID         string           `json:"chapterId"`
	TopicID           string           `json:"topicId"`
	AnsweredQuestions []QuestionResult `json:"answeredQuestions"`
	CorrectCount      int              `json:"correctCount"`
	TotalQuestions    int              `json:"totalQuestions"`
	ScorePercent      int              `json:"scorePercent"`
	SubmittedAt       time.Time        `json:"submittedAt"`
}

func (s QuizSubmission) Ref() TopicRef {
	return TopicRef{CourseID: s.CourseID, ChapterID: s.ChapterID, TopicID: s.TopicID}
}

// ScoreEntry is the compact form of a submission kept on the enrollment.
func (s QuizSubmission) ScoreEntry() QuizScore {
	return QuizScore{
		SubmissionID:   s.ID,
		ChapterID:      s.ChapterID,
		TopicID:        s.TopicID,
		ScorePercent:   s.ScorePercent,
		TotalQuestions: s.TotalQuestions,
		SubmittedAt:    s.SubmittedAt,
	}
}
