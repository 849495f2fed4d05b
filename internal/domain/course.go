package domain

import "time"

type Level string

const (
	LevelBeginner     Level = "Beginner"
	LevelIntermediate Level = "Intermediate"
	LevelAdvance      Level = "Advance"
)

// Course is stored as one document; chapters, topics and quizzes are embedded.
type Course struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Level       Level     `json:"level"`
	Price       float64   `json:"price"`
	Image       string    `json:"image,omitempty"`
	TeacherID   string    `json:"teacherId"`
	Chapters    []Chapter `json:"chapters"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Chapter struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Topics []Topic `json:"topics"`
}

type Topic struct {
	ID    string     `json:"id"`
	Title string     `json:"title"`
	Video string     `json:"video,omitempty"`
	Notes string     `json:"notes,omitempty"`
	Quiz  []Question `json:"quiz"`
}

// TopicRef addresses one topic inside a course.
type TopicRef struct {
	CourseID  string `json:"courseId"`
	ChapterID string `json:"chapterId"`
	TopicID   string `json:"topicId"`
}

// Key is the cache field name for the topic within its course.
func (r TopicRef) Key() string {
	return r.ChapterID + "/" + r.TopicID
}

// Topic finds a topic by chapter and topic id.
func (c Course) Topic(chapterID, topicID string) (Topic, bool) {
	for _, ch := range c.Chapters {
		if ch.ID != chapterID {
			continue
		}
		for _, t := range ch.Topics {
			if t.ID == topicID {
				return t, true
			}
		}
	}
	return Topic{}, false
}

// Quizzes flattens every topic quiz in the course, keyed by TopicRef.Key.
func (c Course) Quizzes() map[string]QuizDefinition {
	out := make(map[string]QuizDefinition)
	for _, ch := range c.Chapters {
		for _, t := range ch.Topics {
			ref := TopicRef{CourseID: c.ID, ChapterID: ch.ID, TopicID: t.ID}
			out[ref.Key()] = QuizDefinition{Ref: ref, Questions: t.Quiz}
		}
	}
	return out
}

// Public returns a copy safe to show students: correct options are removed.
func (c Course) Public() Course {
	out := c
	out.Chapters = make([]Chapter, len(c.Chapters))
	for i, ch := range c.Chapters {
		topics := make([]Topic, len(ch.Topics))
		for j, t := range ch.Topics {
			quiz := make([]Question, len(t.Quiz))
			for k, q := range t.Quiz {
				q.CorrectOptionID = ""
				q.Explanation = ""
				quiz[k] = q
			}
			t.Quiz = quiz
			topics[j] = t
		}
		ch.Topics = topics
		out.Chapters[i] = ch
	}
	return out
}

// CourseFilter narrows catalog listings. Empty fields match everything.
type CourseFilter struct {
	Query     string
	Category  string
	Level     Level
	TeacherID string
}

// CourseStats is what a teacher sees per course.
type CourseStats struct {
	Course           Course `json:"course"`
	EnrolledCount    int    `json:"enrolledCount"`
	AverageQuizScore int    `json:"averageQuizScore"`
}

// PlatformStats backs the public landing-page counters.
type PlatformStats struct {
	Students    int `json:"students"`
	Instructors int `json:"instructors"`
	Courses     int `json:"courses"`
	Videos      int `json:"videos"`
	Materials   int `json:"materials"`
}
