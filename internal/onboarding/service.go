package onboarding

import (
	"context"
	"fmt"

	"readmind/internal/kvstore"
)

const (
	answersKeyPrefix   = "onboardingAnswers_"
	completedKeyPrefix = "onboardingCompleted_"
	currentKeyPrefix   = "onboardingCurrent_"
)

type Service struct {
	store kvstore.Store
	locks kvstore.Locks
}

func NewService(store kvstore.Store) *Service {
	return &Service{store: store}
}

func (s *Service) load(ctx context.Context, userID string) (State, error) {
	st := State{Steps: Steps, Answers: map[string]any{}}
	if _, err := kvstore.GetJSON(ctx, s.store, answersKeyPrefix+userID, &st.Answers); err != nil {
		return State{}, err
	}
	if st.Answers == nil {
		st.Answers = map[string]any{}
	}
	if _, err := kvstore.GetJSON(ctx, s.store, completedKeyPrefix+userID, &st.Completed); err != nil {
		return State{}, err
	}
	if _, err := kvstore.GetJSON(ctx, s.store, currentKeyPrefix+userID, &st.Current); err != nil {
		return State{}, err
	}
	st.Current = max(0, min(st.Current, len(Steps)-1))
	return st, nil
}

func (s *Service) save(ctx context.Context, userID string, st State) error {
	if err := kvstore.PutJSON(ctx, s.store, answersKeyPrefix+userID, st.Answers); err != nil {
		return fmt.Errorf("save onboarding answers: %w", err)
	}
	if err := kvstore.PutJSON(ctx, s.store, completedKeyPrefix+userID, st.Completed); err != nil {
		return fmt.Errorf("save onboarding flag: %w", err)
	}
	return kvstore.PutJSON(ctx, s.store, currentKeyPrefix+userID, st.Current)
}

func (s *Service) update(ctx context.Context, userID string, fn func(*State) error) (State, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	st, err := s.load(ctx, userID)
	if err != nil {
		return State{}, err
	}
	if err := fn(&st); err != nil {
		return State{}, err
	}
	if err := s.save(ctx, userID, st); err != nil {
		return State{}, err
	}
	return st, nil
}

func (s *Service) State(ctx context.Context, userID string) (State, error) {
	return s.load(ctx, userID)
}

// Completed reports whether the user finished the questionnaire.
func (s *Service) Completed(ctx context.Context, userID string) (bool, error) {
	var done bool
	if _, err := kvstore.GetJSON(ctx, s.store, completedKeyPrefix+userID, &done); err != nil {
		return false, err
	}
	return done, nil
}

// SetAnswer stores the answer for one step. A nil value removes it.
func (s *Service) SetAnswer(ctx context.Context, userID, stepID string, value any) (State, error) {
	step, ok := findStep(stepID)
	if !ok {
		return State{}, fmt.Errorf("%w: %q", ErrUnknownStep, stepID)
	}
	if err := checkAnswer(step, value); err != nil {
		return State{}, err
	}
	return s.update(ctx, userID, func(st *State) error {
		if value == nil {
			delete(st.Answers, stepID)
		} else {
			st.Answers[stepID] = value
		}
		return nil
	})
}

// Next moves forward one step, stopping at the last one.
func (s *Service) Next(ctx context.Context, userID string) (State, error) {
	return s.update(ctx, userID, func(st *State) error {
		if st.Current < len(Steps)-1 {
			st.Current++
		}
		return nil
	})
}

// Back moves back one step, stopping at the first one.
func (s *Service) Back(ctx context.Context, userID string) (State, error) {
	return s.update(ctx, userID, func(st *State) error {
		if st.Current > 0 {
			st.Current--
		}
		return nil
	})
}

func (s *Service) Finish(ctx context.Context, userID string) (State, error) {
	return s.update(ctx, userID, func(st *State) error {
		st.Completed = true
		return nil
	})
}

// Reset forgets answers and progress.
func (s *Service) Reset(ctx context.Context, userID string) (State, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	for _, key := range []string{answersKeyPrefix, completedKeyPrefix, currentKeyPrefix} {
		if err := s.store.Delete(ctx, key+userID); err != nil {
			return State{}, fmt.Errorf("reset onboarding: %w", err)
		}
	}
	return State{Steps: Steps, Answers: map[string]any{}}, nil
}
