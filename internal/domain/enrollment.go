package domain

import "time"

// QuizScore is one entry of an enrollment's quiz history.
type QuizScore struct {
	SubmissionID   string    `json:"submissionId,omitempty"`
	ChapterID      string    `json:"chapterId"`
	TopicID        string    `json:"topicId"`
	ScorePercent   int       `json:"scorePercent"`
	TotalQuestions int       `json:"totalQuestions"`
	SubmittedAt    time.Time `json:"submittedAt"`
}

// Enrollment is the per-student, per-course record. Every field below
// QuizScoreHistory is derived from the history by Recompute.
type Enrollment struct {
	StudentID          string      `json:"studentId"`
	CourseID           string      `json:"courseId"`
	EnrolledAt         time.Time   `json:"enrolledAt"`
	QuizScoreHistory   []QuizScore `json:"quizScoreHistory"`
	AvgQuizScore       int         `json:"avgQuizScore"`
	CompletedQuizCount int         `json:"completedQuizCount"`
	BestQuizScore      int         `json:"bestQuizScore"`
	LatestQuizScore    int         `json:"latestQuizScore"`
	CompletedTopics    []string    `json:"completedTopics"`
}

// Recompute derives the aggregates from the full history. It never reads the
// previous aggregate values, so applying it twice is a no-op.
func (e *Enrollment) Recompute() {
	e.CompletedQuizCount = len(e.QuizScoreHistory)
	e.AvgQuizScore, e.BestQuizScore, e.LatestQuizScore = 0, 0, 0
	if e.CompletedQuizCount == 0 {
		return
	}
	sum := 0
	for _, s := range e.QuizScoreHistory {
		sum += s.ScorePercent
		if s.ScorePercent > e.BestQuizScore {
			e.BestQuizScore = s.ScorePercent
		}
	}
	e.AvgQuizScore = RoundedMean(sum, e.CompletedQuizCount)
	e.LatestQuizScore = e.QuizScoreHistory[len(e.QuizScoreHistory)-1].ScorePercent
}

// AppendScore adds one entry and recomputes. An entry whose submission is
// already in the history is not added again.
func (e *Enrollment) AppendScore(s QuizScore) bool {
	if s.SubmissionID != "" {
		for _, have := range e.QuizScoreHistory {
			if have.SubmissionID == s.SubmissionID {
				return false
			}
		}
	}
	e.QuizScoreHistory = append(e.QuizScoreHistory, s)
	e.Recompute()
	return true
}

// CompleteTopic records topicID once.
func (e *Enrollment) CompleteTopic(topicID string) bool {
	for _, t := range e.CompletedTopics {
		if t == topicID {
			return false
		}
	}
	e.CompletedTopics = append(e.CompletedTopics, topicID)
	return true
}

// RoundedMean returns sum/n rounded half up. Inputs are non-negative.
func RoundedMean(sum, n int) int {
	if n <= 0 {
		return 0
	}
	return (2*sum + n) / (2 * n)
}

// Percent returns 100*part/whole rounded half up.
func Percent(part, whole int) int {
	return RoundedMean(100*part, whole)
}
