package service

import (
	"errors"

	"github.com/Johnie198946/Authen-sub002/internal/model"
	"github.com/Johnie198946/Authen-sub002/internal/repository"

	"github.com/Johnie198946/Authen-sub002/pkg/log"

	"gorm.io/gorm"
)

// MembershipService 封装用户与组织节点的成员关系簿记。
// 纯粹的多对多关联维护，没有派生状态，不参与权限继承计算。
type MembershipService interface {
	// AssignUsers 把一批用户挂到节点下。不存在的用户 ID 静默跳过，重复分配幂等。
	AssignUsers(nodeID string, userIDs []uint) error

	// GetUsers 返回节点下的全部成员用户。
	GetUsers(nodeID string) ([]model.User, error)

	// RemoveUser 解除单个用户与节点的关联。关联不存在时返回 ErrMembershipNotFound。
	RemoveUser(nodeID string, userID uint) error
}

type membershipService struct {
	nodeRepo       repository.OrganizationNodeRepository
	membershipRepo repository.UserOrganizationRepository
	userRepo       repository.UserRepository
}

func NewMembershipService(
	nodeRepo repository.OrganizationNodeRepository,
	membershipRepo repository.UserOrganizationRepository,
	userRepo repository.UserRepository,
) MembershipService {
	return &membershipService{
		nodeRepo:       nodeRepo,
		membershipRepo: membershipRepo,
		userRepo:       userRepo,
	}
}

// AssignUsers 把一批用户挂到节点下。
// 关键规则：
// 1. 节点必须存在。
// 2. 用户 ID 先批量查库过滤，不存在的 ID 静默跳过（记一条 warn 日志）。
// 3. 全部被跳过时按空操作处理。
func (s *membershipService) AssignUsers(nodeID string, userIDs []uint) error {
	if s.nodeRepo == nil || s.membershipRepo == nil || s.userRepo == nil {
		return ErrInternal
	}

	node, err := s.findNode(nodeID)
	if err != nil {
		return err
	}

	if len(userIDs) == 0 {
		return nil
	}

	ids := dedupUserIDs(userIDs)
	users, err := s.userRepo.FindByIDs(ids)
	if err != nil {
		return err
	}
	if len(users) < len(ids) {
		log.Warnf("MembershipService.AssignUsers: %d of %d user ids do not exist, skipping", len(ids)-len(users), len(ids))
	}

	memberships := make([]model.UserOrganization, 0, len(users))
	for _, u := range users {
		memberships = append(memberships, model.UserOrganization{
			UserID: u.ID,
			NodeID: node.NodeID,
		})
	}
	if len(memberships) == 0 {
		return nil
	}
	return s.membershipRepo.Assign(memberships)
}

// GetUsers 返回节点下的全部成员用户。
func (s *membershipService) GetUsers(nodeID string) ([]model.User, error) {
	if s.nodeRepo == nil || s.membershipRepo == nil || s.userRepo == nil {
		return nil, ErrInternal
	}

	node, err := s.findNode(nodeID)
	if err != nil {
		return nil, err
	}

	memberships, err := s.membershipRepo.FindByNodeID(node.NodeID)
	if err != nil {
		return nil, err
	}
	if len(memberships) == 0 {
		return []model.User{}, nil
	}

	ids := make([]uint, 0, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.UserID)
	}
	return s.userRepo.FindByIDs(ids)
}

// RemoveUser 解除单个用户与节点的关联。
func (s *membershipService) RemoveUser(nodeID string, userID uint) error {
	if s.nodeRepo == nil || s.membershipRepo == nil {
		return ErrInternal
	}

	node, err := s.findNode(nodeID)
	if err != nil {
		return err
	}
	if userID == 0 {
		return ErrInvalidInput
	}

	if err := s.membershipRepo.Remove(node.NodeID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMembershipNotFound
		}
		return err
	}
	return nil
}

func (s *membershipService) findNode(nodeID string) (*model.OrganizationNode, error) {
	return findOrgNode(s.nodeRepo, nodeID)
}

// dedupUserIDs 去重并剔除零值 ID。
func dedupUserIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
