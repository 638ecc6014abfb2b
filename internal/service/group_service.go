package service

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/fathima-sithara/campus-connect/internal/apperr"
	"github.com/fathima-sithara/campus-connect/internal/metrics"
	"github.com/fathima-sithara/campus-connect/internal/models"
	"github.com/fathima-sithara/campus-connect/internal/repository"
)

type GroupService struct {
	base
	users  repository.UserRepository
	groups repository.GroupRepository
}

func NewGroupService(users repository.UserRepository, groups repository.GroupRepository, log *zap.Logger, opts ...Option) *GroupService {
	return &GroupService{base: newBase(log, opts), users: users, groups: groups}
}

// EnsureWorld creates the campus-wide group on first start.
func (s *GroupService) EnsureWorld(ctx context.Context) error {
	if err := s.groups.EnsureWorld(ctx, s.now()); err != nil {
		return storeErr(err, "world group")
	}
	return nil
}

type CreateGroupInput struct {
	Name        string
	Description string
	Type        models.GroupType
	ClubID      string
	Members     []string
}

func (s *GroupService) ListGroups(ctx context.Context, sess Session) ([]models.GroupChat, error) {
	if err := sess.check(); err != nil {
		return nil, err
	}
	groups, err := s.groups.ListForUser(ctx, sess.UserID)
	if err != nil {
		return nil, storeErr(err, "groups")
	}
	return groups, nil
}

// CreateGroup creates a custom or club group. The creator is always a
// member; the world group cannot be created.
func (s *GroupService) CreateGroup(ctx context.Context, sess Session, in CreateGroupInput) (*models.GroupChat, error) {
	if err := sess.check(); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.InvalidInput("group name is required")
	}
	if in.Type == "" {
		in.Type = models.GroupCustom
	}
	switch in.Type {
	case models.GroupCustom:
		in.ClubID = ""
	case models.GroupClub:
		if strings.TrimSpace(in.ClubID) == "" {
			return nil, apperr.InvalidInput("club_id is required for club groups")
		}
	case models.GroupWorld:
		return nil, apperr.InvalidInput("the world group already exists")
	default:
		return nil, apperr.InvalidInput("unknown group type " + string(in.Type))
	}

	members := uniqueIDs(append([]string{sess.UserID}, in.Members...))
	if err := s.requireUsers(ctx, members[1:]); err != nil {
		return nil, err
	}

	now := s.now()
	g := &models.GroupChat{
		ID:          primitive.NewObjectID().Hex(),
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Type:        in.Type,
		Members:     members,
		CreatedBy:   sess.UserID,
		ClubID:      strings.TrimSpace(in.ClubID),
		Messages:    []models.Message{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.groups.Create(ctx, g); err != nil {
		return nil, storeErr(err, "group")
	}
	s.hints.Notify(members, models.Hint{Event: models.HintGroup, ID: g.ID})
	return g, nil
}

func (s *GroupService) loadForMember(ctx context.Context, sess Session, groupID string) (*models.GroupChat, error) {
	if err := sess.check(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(groupID) == "" {
		return nil, apperr.InvalidInput("group id is required")
	}
	g, err := s.groups.Get(ctx, groupID)
	if err != nil {
		return nil, storeErr(err, "group")
	}
	if !g.IsMember(sess.UserID) {
		return nil, apperr.Forbidden("not a member of this group")
	}
	return g, nil
}

func (s *GroupService) PostGroupMessage(ctx context.Context, sess Session, groupID, content string) (*models.Message, error) {
	g, err := s.loadForMember(ctx, sess, groupID)
	if err != nil {
		return nil, err
	}
	content, err = cleanContent(content)
	if err != nil {
		return nil, err
	}
	msg := models.Message{
		ID:        uuid.NewString(),
		Sender:    senderFor(ctx, s.users, sess.UserID),
		Content:   content,
		Timestamp: s.now(),
	}
	if _, err := s.groups.AppendMessage(ctx, g.ID, msg); err != nil {
		return nil, storeErr(err, "group")
	}
	metrics.MessagesSent.WithLabelValues(string(g.Type)).Inc()

	s.publish(ctx, g.ID, models.ChatEvent{Event: models.EventGroupMessage, GroupID: g.ID, MessageID: msg.ID, Message: &msg, At: msg.Timestamp})
	hint := models.Hint{Event: models.HintGroup, ID: g.ID}
	if g.IsWorld() {
		s.hints.Broadcast(hint)
	} else {
		s.hints.Notify(g.Members, hint)
	}
	return &msg, nil
}

func (s *GroupService) ListGroupMessages(ctx context.Context, sess Session, groupID string) ([]models.Message, error) {
	g, err := s.loadForMember(ctx, sess, groupID)
	if err != nil {
		return nil, err
	}
	if g.Messages == nil {
		return []models.Message{}, nil
	}
	return g.Messages, nil
}

// AddMembers lets any member add existing users. World membership is
// implicit and cannot be changed.
func (s *GroupService) AddMembers(ctx context.Context, sess Session, groupID string, userIDs []string) (*models.GroupChat, error) {
	g, err := s.loadForMember(ctx, sess, groupID)
	if err != nil {
		return nil, err
	}
	if g.IsWorld() {
		return nil, apperr.Forbidden("world group membership cannot be changed")
	}
	ids := uniqueIDs(userIDs)
	if len(ids) == 0 {
		return nil, apperr.InvalidInput("members must not be empty")
	}
	if err := s.requireUsers(ctx, ids); err != nil {
		return nil, err
	}
	updated, err := s.groups.AddMembers(ctx, g.ID, ids)
	if err != nil {
		return nil, storeErr(err, "group")
	}
	updated.Messages = nil
	s.hints.Notify(updated.Members, models.Hint{Event: models.HintGroup, ID: g.ID})
	return updated, nil
}

// RemoveMember removes userID from a custom or club group. The creator can
// remove anyone but themselves; other members can only leave.
func (s *GroupService) RemoveMember(ctx context.Context, sess Session, groupID, userID string) (*models.GroupChat, error) {
	if err := sess.check(); err != nil {
		return nil, err
	}
	g, err := s.groups.Get(ctx, groupID)
	if err != nil {
		return nil, storeErr(err, "group")
	}
	switch {
	case g.IsWorld():
		return nil, apperr.Forbidden("members cannot be removed from the world group")
	case userID == g.CreatedBy:
		return nil, apperr.Forbidden("the group creator cannot be removed")
	case sess.UserID != g.CreatedBy && sess.UserID != userID:
		return nil, apperr.Forbidden("only the creator can remove other members")
	case !g.IsMember(userID):
		return nil, apperr.NotFound("member not found")
	}
	updated, err := s.groups.RemoveMember(ctx, g.ID, userID)
	if err != nil {
		return nil, storeErr(err, "group")
	}
	updated.Messages = nil
	s.hints.Notify(append(updated.Members, userID), models.Hint{Event: models.HintGroup, ID: g.ID})
	return updated, nil
}

// ListMembers returns member profiles in membership order. For the world
// group that is every user.
func (s *GroupService) ListMembers(ctx context.Context, sess Session, groupID string) ([]models.User, error) {
	g, err := s.loadForMember(ctx, sess, groupID)
	if err != nil {
		return nil, err
	}
	if g.IsWorld() {
		users, err := s.users.ListUsers(ctx)
		if err != nil {
			return nil, storeErr(err, "users")
		}
		return users, nil
	}
	users, err := s.users.GetUsers(ctx, g.Members)
	if err != nil {
		return nil, storeErr(err, "users")
	}
	byID := make(map[string]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	out := make([]models.User, 0, len(g.Members))
	for _, id := range g.Members {
		u, ok := byID[id]
		if !ok {
			u = models.User{ID: id}
		}
		out = append(out, u)
	}
	return out, nil
}

func (s *GroupService) requireUsers(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	found, err := s.users.GetUsers(ctx, ids)
	if err != nil {
		return storeErr(err, "users")
	}
	known := make(map[string]bool, len(found))
	for _, u := range found {
		known[u.ID] = true
	}
	var missing []string
	for _, id := range ids {
		if !known[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return apperr.NotFound("unknown users: " + strings.Join(missing, ", "))
	}
	return nil
}

// uniqueIDs trims, drops blanks and keeps the first occurrence of each id.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
