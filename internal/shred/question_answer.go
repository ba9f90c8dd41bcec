package shred

import (
	"context"
	"fmt"

	"eventshred/internal/domain"
	"eventshred/internal/shred/store"
)

const QuestionAnswerIdentifier = "question_answers"

// QuestionAnswerShredder deletes all answers to checkout questions, and
// redacts logged changes to them.
type QuestionAnswerShredder struct {
	event  domain.Event
	stores store.Stores
}

func NewQuestionAnswerShredder(event domain.Event, stores store.Stores) *QuestionAnswerShredder {
	return &QuestionAnswerShredder{event: event, stores: stores}
}

func (s *QuestionAnswerShredder) Identifier() string  { return QuestionAnswerIdentifier }
func (s *QuestionAnswerShredder) VerboseName() string { return "Question answers" }

func (s *QuestionAnswerShredder) Description() string {
	return "This will remove all answers to questions, as well as logged changes to them."
}

func (s *QuestionAnswerShredder) schema() Schema {
	// Everything in an order-modified row is an answer field except the
	// attendee name and e-mail, which belong to the other shredders.
	return Schema{
		{Action: domain.ActionOrderModified, Apply: MaskRowsExcept("attendee_name", "attendee_email")},
	}
}

func (s *QuestionAnswerShredder) GenerateFiles(ctx context.Context) ([]ExportFile, error) {
	keys, err := s.stores.Positions.ListKeys(ctx, s.event.Slug)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	answers, err := s.stores.Answers.ByPosition(ctx, s.event.Slug)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	// Every position appears in the export, with an empty list when no
	// questions were answered.
	export := make(map[string][]domain.QuestionAnswer, len(keys))
	for _, key := range keys {
		answerList := answers[key]
		if answerList == nil {
			answerList = []domain.QuestionAnswer{}
		}
		export[key] = answerList
	}
	file, err := jsonExport("question-answers.json", export)
	if err != nil {
		return nil, err
	}
	return []ExportFile{file}, nil
}

func (s *QuestionAnswerShredder) ShredData(ctx context.Context) error {
	if err := s.stores.Answers.DeleteForEvent(ctx, s.event.Slug); err != nil {
		return fmt.Errorf("delete answers: %w", err)
	}
	return redactLogs(ctx, s.stores.Logs, s.event.Slug, s.schema())
}
