package shell

import (
	"context"
	"fmt"
	"net/url"

	"github.com/skillportal/skillportal/internal/cli/client"
)

func (s *Shell) userDashboardScreen(ctx context.Context, _ url.Values) (Redirect, error) {
	s.printf("\nUser Dashboard\n")

	skills, err := s.api.DashboardSkills(ctx)
	if err != nil {
		s.printf("%s\n", client.MessageOr(err, "Failed to load skills"))
		return Redirect{}, nil
	}

	history, err := s.api.DashboardHistory(ctx)
	if err != nil {
		s.printf("%s\n", client.MessageOr(err, "Failed to load history"))
	} else {
		s.printf("\nQuiz history\n")
		RenderHistory(s.out, history)
	}

	if len(skills) == 0 {
		s.printf("\nNo skills available yet.\n")
		return Redirect{}, nil
	}

	labels := make([]string, 0, len(skills)+1)
	for _, sk := range skills {
		labels = append(labels, sk.Name)
	}
	labels = append(labels, "Back")

	idx, err := s.prompt.Select("Start a quiz", labels)
	if err != nil {
		return Redirect{}, err
	}
	if idx == len(skills) {
		return Redirect{}, nil
	}
	return Redirect{Path: QuizTarget(skills[idx].ID.String())}, nil
}

func (s *Shell) quizScreen(ctx context.Context, query url.Values) (Redirect, error) {
	skillID := query.Get("skill_id")
	if skillID == "" {
		return Redirect{Path: UserDashboardPath}, nil
	}

	questions, err := s.api.QuizQuestions(ctx, skillID)
	if err != nil {
		s.logger.Debug().Err(err).Str("skill_id", skillID).Msg("Failed to load questions")
		s.printf("Failed to load questions\n")
		return Redirect{}, nil
	}
	if len(questions) == 0 {
		s.printf("No questions available for this skill.\n")
		return Redirect{}, nil
	}

	answers, err := s.askAll(questions)
	if err != nil {
		return Redirect{}, err
	}
	if answers == nil {
		s.printf("Please answer all questions.\n")
		return Redirect{}, nil
	}

	result, err := s.api.SubmitQuiz(ctx, skillID, answers)
	if err != nil {
		s.printf("%s\n", client.MessageOr(err, "Submit failed"))
		return Redirect{}, nil
	}

	total := result.Total
	if total == 0 {
		total = len(questions)
	}
	s.printf("\nYour Score: %d / %d\n", result.Score, total)
	return Redirect{}, nil
}

// askAll returns nil when a question cannot be answered
func (s *Shell) askAll(questions []client.QuizQuestion) ([]client.Answer, error) {
	answers := make([]client.Answer, 0, len(questions))
	for i, q := range questions {
		if len(q.Options) == 0 {
			return nil, nil
		}
		idx, err := s.prompt.Select(fmt.Sprintf("%d. %s", i+1, q.Question), q.Options)
		if err != nil {
			return nil, err
		}
		answers = append(answers, client.Answer{
			QuestionID:     q.ID.String(),
			SelectedAnswer: q.Options[idx],
		})
	}
	return answers, nil
}
