package shell

import (
	"context"
	"net/url"

	"github.com/skillportal/skillportal/internal/session"
)

const (
	HomePath           = "/"
	RegisterPath       = "/register"
	UserDashboardPath  = "/user/dashboard"
	QuizPath           = "/user/quiz"
	AdminDashboardPath = "/admin/dashboard"
)

type screenFunc func(ctx context.Context, query url.Values) (Redirect, error)

type route struct {
	path        string
	protected   bool
	requirement session.Requirement
	screen      screenFunc
}

func (s *Shell) routeTable() map[string]route {
	table := []route{
		{path: HomePath, screen: s.homeScreen},
		{path: session.LoginPath, screen: s.loginScreen},
		{path: RegisterPath, screen: s.registerScreen},
		{path: UserDashboardPath, protected: true, requirement: session.RequireUser, screen: s.userDashboardScreen},
		{path: QuizPath, protected: true, requirement: session.RequireUser, screen: s.quizScreen},
		{path: AdminDashboardPath, protected: true, requirement: session.RequireAdmin, screen: s.adminDashboardScreen},
	}

	routes := make(map[string]route, len(table))
	for _, rt := range table {
		routes[rt.path] = rt
	}
	return routes
}

func (s *Shell) notFound() route {
	return route{path: "*", screen: s.notFoundScreen}
}

// DashboardPath is the landing screen for a role
func DashboardPath(role session.Role) string {
	if role == session.RoleAdmin {
		return AdminDashboardPath
	}
	return UserDashboardPath
}

// QuizTarget is the quiz route for one skill
func QuizTarget(skillID string) string {
	q := url.Values{}
	q.Set("skill_id", skillID)
	return QuizPath + "?" + q.Encode()
}
