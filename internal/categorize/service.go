package categorize

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/MrJamesThe3rd/ledgerly/internal/clock"
	"github.com/MrJamesThe3rd/ledgerly/internal/identity"
	"github.com/MrJamesThe3rd/ledgerly/internal/ids"
	"github.com/MrJamesThe3rd/ledgerly/internal/validation"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=categorize
type Repository interface {
	Init(ctx context.Context) error
	ListRules(ctx context.Context) ([]*Rule, error)
	CreateRule(ctx context.Context, rule *Rule) error
}

type Service struct {
	repo  Repository
	clock clock.Clock
}

func NewService(repo Repository, clk clock.Clock) *Service {
	return &Service{repo: repo, clock: clk}
}

func (s *Service) Init(ctx context.Context) error {
	return s.repo.Init(ctx)
}

// Suggest returns the category of the rule whose pattern occurs in
// rawDescription, ignoring case. The longest pattern wins, then the newest.
// Returns empty string if no rule matches.
func (s *Service) Suggest(ctx context.Context, rawDescription string) (string, error) {
	rules, err := s.repo.ListRules(ctx)
	if err != nil {
		return "", err
	}

	raw := strings.ToLower(rawDescription)

	var best *Rule

	for _, r := range rules {
		p := strings.ToLower(strings.TrimSpace(r.Pattern))
		if p == "" || !strings.Contains(raw, p) {
			continue
		}

		if best == nil || better(r, best) {
			best = r
		}
	}

	if best == nil {
		return "", nil
	}

	return best.Category, nil
}

func better(a, b *Rule) bool {
	if c := cmp.Compare(len(strings.TrimSpace(a.Pattern)), len(strings.TrimSpace(b.Pattern))); c != 0 {
		return c > 0
	}

	return a.CreatedAt.After(b.CreatedAt)
}

// Learn remembers that descriptions containing pattern belong to category.
func (s *Service) Learn(ctx context.Context, actor identity.Identity, pattern, category string) (*Rule, error) {
	pattern = strings.TrimSpace(pattern)
	category = strings.TrimSpace(category)

	if pattern == "" || category == "" {
		return nil, validation.New("Pattern and category are required")
	}

	now := s.clock.Now()
	rule := &Rule{
		ID:        ids.NewAt(ids.PrefixRule, now),
		Pattern:   pattern,
		Category:  category,
		CreatedAt: now,
		CreatedBy: actor.Email,
	}

	if err := s.repo.CreateRule(ctx, rule); err != nil {
		return nil, err
	}

	return rule, nil
}

// Rules lists learned rules, longest pattern first.
func (s *Service) Rules(ctx context.Context) ([]*Rule, error) {
	rules, err := s.repo.ListRules(ctx)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(rules, func(a, b *Rule) int {
		if better(a, b) {
			return -1
		}

		if better(b, a) {
			return 1
		}

		return 0
	})

	return rules, nil
}
