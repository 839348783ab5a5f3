package service

import (
	"errors"
	"sort"
	"strings"

	"github.com/Johnie198946/Authen-sub002/internal/model"
	"github.com/Johnie198946/Authen-sub002/internal/repository"

	"github.com/Johnie198946/Authen-sub002/pkg/log"

	"gorm.io/gorm"
)

// PermissionService 封装权限授权与继承解析。
// 生效权限 = 节点自身直连授权 ∪ 所有祖先节点的直连授权。
// 解析是纯读操作，每次都按当前数据重算，不做缓存：
// 节点被移动后，后续解析自然读到新的祖先链，无需任何失效簿记。
type PermissionService interface {
	// Assign 给节点批量授权。格式非法的权限 ID 静默跳过，重复授权幂等。
	Assign(nodeID string, permissionIDs []string, actor string) error

	// Resolve 计算节点的权限集合。
	// includeInherited 为 false 时只返回直连授权，为 true 时合并整条祖先链。
	// 返回值已去重并按字典序排序。
	Resolve(nodeID string, includeInherited bool) ([]string, error)

	// Remove 移除单条直连授权。未授权的组合返回 ErrPermissionNotAssigned。
	Remove(nodeID, permissionID string) error
}

type permissionService struct {
	nodeRepo repository.OrganizationNodeRepository
	permRepo repository.NodePermissionRepository
}

func NewPermissionService(nodeRepo repository.OrganizationNodeRepository, permRepo repository.NodePermissionRepository) PermissionService {
	return &permissionService{nodeRepo: nodeRepo, permRepo: permRepo}
}

// Assign 给节点批量授权。
// 关键规则：
// 1. 节点必须存在。
// 2. 权限 ID 去除空白、去重；不是合法 UUID 的条目静默跳过（记一条 warn 日志）。
// 3. 全部条目都被跳过时按空操作处理，不报错。
func (s *permissionService) Assign(nodeID string, permissionIDs []string, actor string) error {
	if s.nodeRepo == nil || s.permRepo == nil {
		return ErrInternal
	}

	node, err := s.findNode(nodeID)
	if err != nil {
		return err
	}

	actor = normalizeActor(actor)

	assignments := make([]model.NodePermission, 0, len(permissionIDs))
	seen := make(map[string]struct{}, len(permissionIDs))
	for _, raw := range permissionIDs {
		permID := strings.TrimSpace(raw)
		if permID == "" {
			continue
		}
		if !isValidNodeID(permID) {
			log.Warnf("PermissionService.Assign: skipping malformed permission id %q for node %s", raw, node.NodeID)
			continue
		}
		if _, ok := seen[permID]; ok {
			continue
		}
		seen[permID] = struct{}{}
		assignments = append(assignments, model.NodePermission{
			NodeID:       node.NodeID,
			PermissionID: permID,
			CreatedBy:    actor,
		})
	}

	if len(assignments) == 0 {
		return nil
	}
	return s.permRepo.Assign(assignments)
}

// Resolve 计算节点的直连或生效权限集合。
// 继承解析沿 ParentID 逐跳上行（而不是解析 path 字符串），直到根节点。
// 树结构无环且层级有界，最多走 MaxOrgNodeLevel 跳；为防数据损坏成环仍设硬上限。
func (s *permissionService) Resolve(nodeID string, includeInherited bool) ([]string, error) {
	if s.nodeRepo == nil || s.permRepo == nil {
		return nil, ErrInternal
	}

	node, err := s.findNode(nodeID)
	if err != nil {
		return nil, err
	}

	result := make(map[string]struct{})
	if err := s.collectDirect(node.NodeID, result); err != nil {
		return nil, err
	}

	if includeInherited {
		current := node
		for hops := 0; current.ParentID != nil && *current.ParentID != ""; hops++ {
			if hops > model.MaxOrgNodeLevel {
				// 层级不变量保证走不到这里；命中说明数据已损坏成环，截断并告警。
				log.Warnf("PermissionService.Resolve: ancestor chain of node %s exceeds depth bound, truncating", node.NodeID)
				break
			}
			parent, err := s.nodeRepo.FindByID(*current.ParentID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					// 悬挂的 parent 引用：按孤儿节点处理，链到此为止。
					break
				}
				return nil, err
			}
			if err := s.collectDirect(parent.NodeID, result); err != nil {
				return nil, err
			}
			current = parent
		}
	}

	ids := make([]string, 0, len(result))
	for id := range result {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Remove 移除单条直连授权。
func (s *permissionService) Remove(nodeID, permissionID string) error {
	if s.nodeRepo == nil || s.permRepo == nil {
		return ErrInternal
	}

	node, err := s.findNode(nodeID)
	if err != nil {
		return err
	}

	permissionID = strings.TrimSpace(permissionID)
	if permissionID == "" {
		return ErrInvalidInput
	}
	if !isValidNodeID(permissionID) {
		return ErrInvalidIdentifier
	}

	if err := s.permRepo.Remove(node.NodeID, permissionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPermissionNotAssigned
		}
		return err
	}
	return nil
}

// collectDirect 把节点的直连授权并入结果集合。
func (s *permissionService) collectDirect(nodeID string, result map[string]struct{}) error {
	assignments, err := s.permRepo.FindByNodeID(nodeID)
	if err != nil {
		return err
	}
	for _, a := range assignments {
		result[a.PermissionID] = struct{}{}
	}
	return nil
}

func (s *permissionService) findNode(nodeID string) (*model.OrganizationNode, error) {
	return findOrgNode(s.nodeRepo, nodeID)
}
