package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/idfuturestars/StarGuideAI/internal/domain"
)

const (
	DefaultPodSubject    = "general"
	DefaultPodMaxMembers = 10
	podListLimit         = 20
)

// PodService manages learning pods and their chat.
type PodService struct {
	store PodStore
	log   logrus.FieldLogger
	now   func() time.Time
}

func NewPodService(store PodStore, log logrus.FieldLogger) *PodService {
	return &PodService{store: store, log: log, now: time.Now}
}

// Create makes a pod with the creator as its admin member.
func (s *PodService) Create(ctx context.Context, creatorID string, pod domain.Pod) (domain.Pod, error) {
	pod.Name = strings.TrimSpace(pod.Name)
	if pod.Name == "" {
		return domain.Pod{}, fmt.Errorf("%w: pod name is required", domain.ErrInvalidRequest)
	}
	if pod.Subject == "" {
		pod.Subject = DefaultPodSubject
	}
	if pod.MaxMembers <= 0 {
		pod.MaxMembers = DefaultPodMaxMembers
	}
	pod.CreatorID = creatorID
	pod.CreatedAt = s.now()

	created, err := s.store.CreatePod(ctx, pod)
	if err != nil {
		return domain.Pod{}, err
	}
	s.log.WithFields(logrus.Fields{"pod_id": created.ID, "user_id": creatorID}).Info("pod created")
	return created, nil
}

// List returns the newest active pods.
func (s *PodService) List(ctx context.Context) ([]domain.Pod, error) {
	return s.store.ListPods(ctx, podListLimit)
}

func (s *PodService) Join(ctx context.Context, podID int64, userID string) error {
	return s.store.JoinPod(ctx, podID, userID)
}

// Post stamps and persists a chat message. A persistence failure is logged
// and the message is still returned for broadcast.
func (s *PodService) Post(ctx context.Context, msg domain.PodMessage) (domain.PodMessage, error) {
	msg.Message = strings.TrimSpace(msg.Message)
	if msg.Message == "" {
		return domain.PodMessage{}, fmt.Errorf("%w: empty message", domain.ErrInvalidRequest)
	}
	msg.SentAt = s.now()
	if err := s.store.SaveMessage(ctx, msg); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"pod_id": msg.PodID, "user_id": msg.UserID}).Error("save pod message")
	}
	return msg, nil
}
