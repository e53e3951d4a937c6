package shell

import (
	"context"
	"net/url"
	"strings"

	"github.com/skillportal/skillportal/internal/cli/client"
)

const optionCount = 4

func (s *Shell) adminDashboardScreen(ctx context.Context, _ url.Values) (Redirect, error) {
	sections := []string{"User Management", "Skill Management", "Question Management", "Reports", "Back"}
	for {
		s.printf("\nAdmin Dashboard\n")
		idx, err := s.prompt.Select("Section", sections)
		if err != nil {
			return Redirect{}, err
		}

		switch idx {
		case 0:
			err = s.manageUsers(ctx)
		case 1:
			err = s.manageSkills(ctx)
		case 2:
			err = s.manageQuestions(ctx)
		case 3:
			err = s.reports(ctx)
		default:
			return Redirect{}, nil
		}
		if err != nil {
			return Redirect{}, err
		}
	}
}

// pager drives the page/limit query of a listing
type pager struct {
	page  int
	limit int
}

func (p *pager) actions(n int, base ...string) []string {
	actions := append([]string{}, base...)
	if n >= p.limit {
		actions = append(actions, "Next page")
	}
	if p.page > 1 {
		actions = append(actions, "Previous page")
	}
	return append(actions, "Back")
}

// move handles the paging actions; it reports false for any other action
func (p *pager) move(action string) bool {
	switch action {
	case "Next page":
		p.page++
	case "Previous page":
		p.page--
	default:
		return false
	}
	return true
}

func (s *Shell) manageUsers(ctx context.Context) error {
	pg := &pager{page: 1, limit: s.pageSize}
	for {
		s.printf("\nUsers (page %d)\n", pg.page)
		accounts, err := s.api.ListAccounts(ctx, pg.page, pg.limit)
		if err != nil {
			s.printf("%s\n", client.MessageOr(err, "Failed to load users"))
			return nil
		}
		RenderAccounts(s.out, accounts)

		actions := pg.actions(len(accounts), "Add user", "Edit user", "Delete user")
		idx, err := s.prompt.Select("Action", actions)
		if err != nil {
			return err
		}

		action := actions[idx]
		if pg.move(action) {
			continue
		}

		switch action {
		case "Add user":
			err = s.addUser(ctx)
		case "Edit user":
			err = s.editUser(ctx, accounts)
		case "Delete user":
			err = s.deleteUser(ctx, accounts)
		default:
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (s *Shell) addUser(ctx context.Context) error {
	name, err := s.prompt.Input("Name", "")
	if err != nil {
		return err
	}
	email, err := s.prompt.Input("Email", "")
	if err != nil {
		return err
	}
	password, err := s.prompt.Password("Password")
	if err != nil {
		return err
	}
	idx, err := s.prompt.Select("Role", roleLabels())
	if err != nil {
		return err
	}

	acct := client.NewAccount{Name: name, Email: email, Password: password, Role: roleChoices[idx].String()}
	if err := s.api.CreateAccount(ctx, acct); err != nil {
		s.printf("%s\n", client.MessageOr(err, "Failed to add user"))
		return nil
	}
	s.printf("User added.\n")
	return nil
}

func (s *Shell) pickAccount(accounts []client.Account) (*client.Account, error) {
	if len(accounts) == 0 {
		s.printf("No users on this page.\n")
		return nil, nil
	}
	labels := make([]string, 0, len(accounts)+1)
	for _, a := range accounts {
		labels = append(labels, a.Name+" <"+a.Email+">")
	}
	labels = append(labels, "Cancel")

	idx, err := s.prompt.Select("User", labels)
	if err != nil || idx == len(accounts) {
		return nil, err
	}
	return &accounts[idx], nil
}

func (s *Shell) editUser(ctx context.Context, accounts []client.Account) error {
	acct, err := s.pickAccount(accounts)
	if err != nil || acct == nil {
		return err
	}

	name, err := s.prompt.Input("Name", acct.Name)
	if err != nil {
		return err
	}
	email, err := s.prompt.Input("Email", acct.Email)
	if err != nil {
		return err
	}
	idx, err := s.prompt.Select("Role", roleLabels())
	if err != nil {
		return err
	}

	upd := client.AccountUpdate{Name: name, Email: email, Role: roleChoices[idx].String()}
	if err := s.api.UpdateAccount(ctx, acct.ID.String(), upd); err != nil {
		s.printf("%s\n", client.MessageOr(err, "Failed to update user"))
		return nil
	}
	s.printf("User updated.\n")
	return nil
}

func (s *Shell) deleteUser(ctx context.Context, accounts []client.Account) error {
	acct, err := s.pickAccount(accounts)
	if err != nil || acct == nil {
		return err
	}

	ok, err := s.prompt.Confirm("Delete this user?")
	if err != nil || !ok {
		return err
	}
	if err := s.api.DeleteAccount(ctx, acct.ID.String()); err != nil {
		s.printf("%s\n", client.MessageOr(err, "Failed to delete user"))
		return nil
	}
	s.printf("User deleted.\n")
	return nil
}

func (s *Shell) manageSkills(ctx context.Context) error {
	pg := &pager{page: 1, limit: s.pageSize}
	for {
		s.printf("\nSkills (page %d)\n", pg.page)
		skills, err := s.api.ListSkills(ctx, pg.page, pg.limit)
		if err != nil {
			s.printf("%s\n", client.MessageOr(err, "Failed to load skills"))
			return nil
		}
		RenderSkills(s.out, skills)

		actions := pg.actions(len(skills), "Add skill", "Rename skill", "Delete skill")
		idx, err := s.prompt.Select("Action", actions)
		if err != nil {
			return err
		}

		action := actions[idx]
		if pg.move(action) {
			continue
		}

		switch action {
		case "Add skill":
			err = s.addSkill(ctx)
		case "Rename skill":
			err = s.renameSkill(ctx, skills)
		case "Delete skill":
			err = s.deleteSkill(ctx, skills)
		default:
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (s *Shell) addSkill(ctx context.Context) error {
	name, err := s.prompt.Input("Skill name", "")
	if err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" {
		s.printf("Skill name is required\n")
		return nil
	}
	if err := s.api.CreateSkill(ctx, name); err != nil {
		s.printf("%s\n", client.MessageOr(err, "Failed to add skill"))
		return nil
	}
	s.printf("Skill added.\n")
	return nil
}

func (s *Shell) pickSkill(label string, skills []client.Skill) (*client.Skill, error) {
	if len(skills) == 0 {
		s.printf("No skills available.\n")
		return nil, nil
	}
	labels := make([]string, 0, len(skills)+1)
	for _, sk := range skills {
		labels = append(labels, sk.Name)
	}
	labels = append(labels, "Cancel")

	idx, err := s.prompt.Select(label, labels)
	if err != nil || idx == len(skills) {
		return nil, err
	}
	return &skills[idx], nil
}

func (s *Shell) renameSkill(ctx context.Context, skills []client.Skill) error {
	sk, err := s.pickSkill("Skill", skills)
	if err != nil || sk == nil {
		return err
	}
	name, err := s.prompt.Input("New name", sk.Name)
	if err != nil {
		return err
	}
	if err := s.api.RenameSkill(ctx, sk.ID.String(), name); err != nil {
		s.printf("%s\n", client.MessageOr(err, "Failed to update skill"))
		return nil
	}
	s.printf("Skill updated.\n")
	return nil
}

func (s *Shell) deleteSkill(ctx context.Context, skills []client.Skill) error {
	sk, err := s.pickSkill("Skill", skills)
	if err != nil || sk == nil {
		return err
	}
	ok, err := s.prompt.Confirm("Delete this skill?")
	if err != nil || !ok {
		return err
	}
	if err := s.api.DeleteSkill(ctx, sk.ID.String()); err != nil {
		s.printf("%s\n", client.MessageOr(err, "Failed to delete skill"))
		return nil
	}
	s.printf("Skill deleted.\n")
	return nil
}

func (s *Shell) manageQuestions(ctx context.Context) error {
	skills, err := s.api.ListSkills(ctx, 1, 100)
	if err != nil {
		s.printf("%s\n", client.MessageOr(err, "Failed to load skills"))
		return nil
	}

	filter := ""
	if len(skills) > 0 {
		labels := []string{"All skills"}
		for _, sk := range skills {
			labels = append(labels, sk.Name)
		}
		idx, err := s.prompt.Select("Filter by skill", labels)
		if err != nil {
			return err
		}
		if idx > 0 {
			filter = skills[idx-1].ID.String()
		}
	}

	pg := &pager{page: 1, limit: s.pageSize}
	for {
		s.printf("\nQuestions (page %d)\n", pg.page)
		questions, err := s.api.ListQuestions(ctx, pg.page, pg.limit, filter)
		if err != nil {
			s.printf("%s\n", client.MessageOr(err, "Failed to load questions"))
			return nil
		}
		RenderQuestions(s.out, questions)

		actions := pg.actions(len(questions), "Add question", "Edit question", "Delete question")
		idx, err := s.prompt.Select("Action", actions)
		if err != nil {
			return err
		}

		action := actions[idx]
		if pg.move(action) {
			continue
		}

		switch action {
		case "Add question":
			err = s.saveQuestion(ctx, skills, nil)
		case "Edit question":
			var q *client.Question
			q, err = s.pickQuestion(questions)
			if err == nil && q != nil {
				err = s.saveQuestion(ctx, skills, q)
			}
		case "Delete question":
			err = s.deleteQuestion(ctx, questions)
		default:
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (s *Shell) pickQuestion(questions []client.Question) (*client.Question, error) {
	if len(questions) == 0 {
		s.printf("No questions on this page.\n")
		return nil, nil
	}
	labels := make([]string, 0, len(questions)+1)
	for _, q := range questions {
		labels = append(labels, q.Question)
	}
	labels = append(labels, "Cancel")

	idx, err := s.prompt.Select("Question", labels)
	if err != nil || idx == len(questions) {
		return nil, err
	}
	return &questions[idx], nil
}

// saveQuestion adds a question, or edits existing when it is set
func (s *Shell) saveQuestion(ctx context.Context, skills []client.Skill, existing *client.Question) error {
	sk, err := s.pickSkill("Skill", skills)
	if err != nil || sk == nil {
		return err
	}

	current := client.Question{}
	if existing != nil {
		current = *existing
	}

	text, err := s.prompt.Input("Question", current.Question)
	if err != nil {
		return err
	}

	options := make([]string, optionCount)
	for i := range options {
		def := ""
		if i < len(current.Options) {
			def = current.Options[i]
		}
		options[i], err = s.prompt.Input("Option "+string(rune('A'+i)), def)
		if err != nil {
			return err
		}
		if strings.TrimSpace(options[i]) == "" {
			s.printf("All %d options are required\n", optionCount)
			return nil
		}
	}

	idx, err := s.prompt.Select("Correct answer", options)
	if err != nil {
		return err
	}

	in := client.QuestionInput{
		SkillID:       sk.ID.String(),
		Question:      text,
		Options:       options,
		CorrectAnswer: options[idx],
	}

	if existing == nil {
		err = s.api.CreateQuestion(ctx, in)
	} else {
		err = s.api.UpdateQuestion(ctx, existing.ID.String(), in)
	}
	if err != nil {
		s.printf("%s\n", client.MessageOr(err, "Failed to save question"))
		return nil
	}
	s.printf("Question saved.\n")
	return nil
}

func (s *Shell) deleteQuestion(ctx context.Context, questions []client.Question) error {
	q, err := s.pickQuestion(questions)
	if err != nil || q == nil {
		return err
	}
	ok, err := s.prompt.Confirm("Delete this question?")
	if err != nil || !ok {
		return err
	}
	if err := s.api.DeleteQuestion(ctx, q.ID.String()); err != nil {
		s.printf("%s\n", client.MessageOr(err, "Failed to delete question"))
		return nil
	}
	s.printf("Question deleted.\n")
	return nil
}

func (s *Shell) reports(ctx context.Context) error {
	choices := []string{"User performance", "Skill gap", "Weekly scores", "Monthly scores", "Back"}
	for {
		idx, err := s.prompt.Select("Report", choices)
		if err != nil {
			return err
		}

		switch idx {
		case 0:
			rows, err := s.api.UserPerformance(ctx, "")
			if err != nil {
				s.printf("%s\n", client.MessageOr(err, "Failed to load report"))
				continue
			}
			RenderPerformance(s.out, rows)
		case 1:
			gaps, err := s.api.SkillGaps(ctx)
			if err != nil {
				s.printf("%s\n", client.MessageOr(err, "Failed to load report"))
				continue
			}
			RenderSkillGap(s.out, gaps)
		case 2, 3:
			period := client.PeriodWeek
			if idx == 3 {
				period = client.PeriodMonth
			}
			periods, err := s.api.TimeBased(ctx, period)
			if err != nil {
				s.printf("%s\n", client.MessageOr(err, "Failed to load report"))
				continue
			}
			RenderPeriods(s.out, periods)
		default:
			return nil
		}
	}
}
