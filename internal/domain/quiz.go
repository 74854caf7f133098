package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Question struct {
	Question           string   `json:"question"`
	Options            []string `json:"options"`
	CorrectAnswerIndex *int     `json:"correctAnswerIndex,omitempty"`
}

func (q Question) Validate() error {
	if strings.TrimSpace(q.Question) == "" {
		return fmt.Errorf("%w: question text is required", ErrValidation)
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("%w: at least 2 options required", ErrValidation)
	}
	if q.CorrectAnswerIndex == nil {
		return fmt.Errorf("%w: correctAnswerIndex is required", ErrValidation)
	}
	if i := *q.CorrectAnswerIndex; i < 0 || i >= len(q.Options) {
		return fmt.Errorf("%w: correctAnswerIndex %d out of range", ErrValidation, i)
	}
	return nil
}

type Quiz struct {
	ID           uuid.UUID                     `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID     uuid.UUID                     `gorm:"type:uuid;not null;index" json:"course"`
	LessonID     *uuid.UUID                    `gorm:"type:uuid" json:"lesson"`
	Title        string                        `gorm:"size:150;not null" json:"title"`
	Description  string                        `json:"description"`
	Questions    datatypes.JSONSlice[Question] `json:"questions"`
	TimeLimit    int                           `gorm:"not null;default:0" json:"timeLimit"` // минуты
	PassingScore int                           `gorm:"not null;default:0" json:"passingScore"`
	IsPublished  bool                          `gorm:"not null" json:"isPublished"`
	CreatedAt    time.Time                     `json:"createdAt"`
	UpdatedAt    time.Time                     `json:"updatedAt"`
}

// WithoutAnswers returns a copy of the quiz with every correctAnswerIndex
// removed. The receiver is left untouched.
func (q *Quiz) WithoutAnswers() *Quiz {
	out := *q
	out.Questions = make(datatypes.JSONSlice[Question], len(q.Questions))
	for i, question := range q.Questions {
		question.Options = append([]string(nil), question.Options...)
		question.CorrectAnswerIndex = nil
		out.Questions[i] = question
	}
	return &out
}

// LessonRef treats the zero uuid as "no lesson".
func LessonRef(id *uuid.UUID) *uuid.UUID {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	return id
}

func validateQuestions(questions []Question) error {
	for i, q := range questions {
		if err := q.Validate(); err != nil {
			return fmt.Errorf("question %d: %w", i+1, err)
		}
	}
	return nil
}

type QuizInput struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Lesson       *uuid.UUID `json:"lesson"`
	Questions    []Question `json:"questions"`
	TimeLimit    int        `json:"timeLimit"`
	PassingScore int        `json:"passingScore"`
}

func (in QuizInput) Validate() error {
	title := strings.TrimSpace(in.Title)
	if title == "" || len([]rune(title)) > 150 {
		return fmt.Errorf("%w: title must be 1-150 characters", ErrValidation)
	}
	if in.TimeLimit < 0 || in.PassingScore < 0 {
		return fmt.Errorf("%w: timeLimit and passingScore must not be negative", ErrValidation)
	}
	return validateQuestions(in.Questions)
}

// QuizPatch is the update allow-list for quizzes. Publication state and the
// owning course can not be changed through it.
type QuizPatch struct {
	Title        *string    `json:"title"`
	Description  *string    `json:"description"`
	Lesson       *uuid.UUID `json:"lesson"`
	Questions    []Question `json:"questions"`
	TimeLimit    *int       `json:"timeLimit"`
	PassingScore *int       `json:"passingScore"`
}

func (p QuizPatch) Validate() error {
	if p.Title != nil {
		if t := strings.TrimSpace(*p.Title); t == "" || len([]rune(t)) > 150 {
			return fmt.Errorf("%w: title must be 1-150 characters", ErrValidation)
		}
	}
	if (p.TimeLimit != nil && *p.TimeLimit < 0) || (p.PassingScore != nil && *p.PassingScore < 0) {
		return fmt.Errorf("%w: timeLimit and passingScore must not be negative", ErrValidation)
	}
	if p.Questions != nil {
		return validateQuestions(p.Questions)
	}
	return nil
}

func (p QuizPatch) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if p.Title != nil {
		cols["title"] = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		cols["description"] = strings.TrimSpace(*p.Description)
	}
	if p.Lesson != nil {
		// Нулевой uuid отвязывает квиз от урока
		if lesson := LessonRef(p.Lesson); lesson != nil {
			cols["lesson_id"] = *lesson
		} else {
			cols["lesson_id"] = nil
		}
	}
	if p.Questions != nil {
		cols["questions"] = datatypes.JSONSlice[Question](p.Questions)
	}
	if p.TimeLimit != nil {
		cols["time_limit"] = *p.TimeLimit
	}
	if p.PassingScore != nil {
		cols["passing_score"] = *p.PassingScore
	}
	return cols
}
