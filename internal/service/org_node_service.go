package service

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/Johnie198946/Authen-sub002/internal/model"
	"github.com/Johnie198946/Authen-sub002/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrgNodeService 封装组织树领域逻辑（树变更引擎 + 树查询）。
// 设计目标：
//  1. Handler 不直接操作 Repository，避免协议层混入业务规则。
//  2. 统一错误语义，把底层 gorm/repository 错误转换为 service 哨兵错误。
//  3. 所有结构校验（自移动、环移动、层级上限）在任何写入之前完成，
//     拒绝的操作不会留下任何部分变更。
type OrgNodeService interface {
	Create(name string, parentID *string, actor string) (*model.OrganizationNode, error)
	Rename(nodeID, newName, actor string) (*model.OrganizationNode, error)
	Move(nodeID string, newParentID *string, actor string) (*model.OrganizationNode, error)
	Delete(nodeID string) error
	List() ([]model.OrganizationNode, error)
	GetTree() ([]*model.OrganizationNodeTree, error)
	FindByID(nodeID string) (*model.OrganizationNode, error)
}

type orgNodeService struct {
	nodeRepo repository.OrganizationNodeRepository
}

func NewOrgNodeService(nodeRepo repository.OrganizationNodeRepository) OrgNodeService {
	return &orgNodeService{nodeRepo: nodeRepo}
}

// Create 创建组织节点。
// 关键规则：
// 1. name 必填、去除首尾空白、不能含 "/"、不超过 100 字符。
// 2. 指定 parentID 时，父节点必须存在，且格式必须是合法 UUID。
// 3. path = 父节点 path + "/" + name（根节点为 "/" + name），level = 父节点 level + 1。
// 4. 新节点 level 超过上限时返回 ErrDepthExceeded。
// 5. 目标 path 已存在时返回 ErrOrgNodePathTaken，避免数据库唯一键报错直接外泄。
func (s *orgNodeService) Create(name string, parentID *string, actor string) (*model.OrganizationNode, error) {
	if s.nodeRepo == nil {
		return nil, ErrInternal
	}

	name = strings.TrimSpace(name)
	if err := validateNodeName(name); err != nil {
		return nil, err
	}

	normalizedParent := normalizeOptionalNodeID(parentID)

	// 根节点取值；有父节点时在下面覆盖。
	newPath := "/" + name
	newLevel := 0

	if normalizedParent != nil {
		if !isValidNodeID(*normalizedParent) {
			return nil, ErrInvalidIdentifier
		}
		parent, err := s.nodeRepo.FindByID(*normalizedParent)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrParentNotFound
			}
			return nil, err
		}
		newPath = childPath(parent.Path, name)
		newLevel = parent.Level + 1
		if newLevel > model.MaxOrgNodeLevel {
			return nil, ErrDepthExceeded
		}
	}

	// 先检查目标 path 是否已被占用（同父节点下同名）。
	if _, err := s.nodeRepo.FindByPath(newPath); err == nil {
		return nil, ErrOrgNodePathTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	actor = normalizeActor(actor)

	node := &model.OrganizationNode{
		NodeID:    uuid.NewString(),
		Name:      name,
		ParentID:  normalizedParent,
		Path:      newPath,
		Level:     newLevel,
		CreatedBy: actor,
		UpdatedBy: actor,
	}
	if err := s.nodeRepo.Create(node); err != nil {
		return nil, err
	}
	return node, nil
}

// Rename 只更新节点的 name 字段。
// 已知行为：改名不回写本节点及后代的 path，path 中保留的是创建/移动时的名字。
// 需要 path 同步变化时，调用方应当通过移动操作重建子树。
func (s *orgNodeService) Rename(nodeID, newName, actor string) (*model.OrganizationNode, error) {
	if s.nodeRepo == nil {
		return nil, ErrInternal
	}

	newName = strings.TrimSpace(newName)
	if err := validateNodeName(newName); err != nil {
		return nil, err
	}

	node, err := s.FindByID(nodeID)
	if err != nil {
		return nil, err
	}

	actor = normalizeActor(actor)
	if err := s.nodeRepo.UpdateName(node.NodeID, newName, actor); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrgNodeNotFound
		}
		return nil, err
	}

	node.Name = newName
	node.UpdatedBy = actor
	return node, nil
}

// Move 把节点挂到新父节点下（newParentID 为 nil 表示升为根节点），是最复杂的写操作。
// 校验顺序（全部通过之后才会发生任何写入）：
// 1. 节点必须存在。
// 2. 不能移动到自己下面（ErrSelfMove）。
// 3. 新父节点必须存在（ErrParentNotFound）。
// 4. 新父节点不能位于被移动节点的子树内（ErrCyclicMove，带分隔符边界的前缀判断）。
// 5. 节点本身和所有后代移动后都不能超过层级上限（ErrDepthExceeded）。
// 6. 目标 path 不能已被其他节点占用（ErrOrgNodePathTaken）。
// 后代层级检查和全部行的改写由仓库在同一个事务内完成，拒绝时状态保持原样。
func (s *orgNodeService) Move(nodeID string, newParentID *string, actor string) (*model.OrganizationNode, error) {
	if s.nodeRepo == nil {
		return nil, ErrInternal
	}

	node, err := s.FindByID(nodeID)
	if err != nil {
		return nil, err
	}

	normalizedParent := normalizeOptionalNodeID(newParentID)

	newPath := "/" + node.Name
	newLevel := 0

	if normalizedParent != nil {
		if !isValidNodeID(*normalizedParent) {
			return nil, ErrInvalidIdentifier
		}
		if *normalizedParent == node.NodeID {
			return nil, ErrSelfMove
		}
		parent, err := s.nodeRepo.FindByID(*normalizedParent)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrParentNotFound
			}
			return nil, err
		}
		// 环检查走字符串前缀：新父节点的 path 落在本节点 path + "/" 之下，
		// 说明目标在自己的子树里。
		if isWithinSubtree(parent.Path, node.Path) {
			return nil, ErrCyclicMove
		}
		newPath = childPath(parent.Path, node.Name)
		newLevel = parent.Level + 1
		if newLevel > model.MaxOrgNodeLevel {
			return nil, ErrDepthExceeded
		}
	}

	if newPath == node.Path {
		// 挂回原位置：没有任何行需要变化。
		return node, nil
	}

	if existing, err := s.nodeRepo.FindByPath(newPath); err == nil {
		if existing.NodeID != node.NodeID {
			return nil, ErrOrgNodePathTaken
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	actor = normalizeActor(actor)
	if err := s.nodeRepo.MoveSubtree(node.NodeID, normalizedParent, newPath, newLevel, actor); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrOrgNodeNotFound
		case errors.Is(err, repository.ErrOrgNodeDepthExceeded):
			return nil, ErrDepthExceeded
		default:
			return nil, err
		}
	}

	return s.FindByID(node.NodeID)
}

// Delete 执行保护删除。
// 当节点有子节点时返回 ErrOrgNodeHasChildren，调用方需要自底向上先删除后代。
func (s *orgNodeService) Delete(nodeID string) error {
	if s.nodeRepo == nil {
		return ErrInternal
	}
	nodeID = strings.TrimSpace(nodeID)
	if nodeID == "" {
		return ErrInvalidInput
	}
	if !isValidNodeID(nodeID) {
		return ErrInvalidIdentifier
	}

	if err := s.nodeRepo.Delete(nodeID); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return ErrOrgNodeNotFound
		case errors.Is(err, repository.ErrOrgNodeHasChildren):
			return ErrOrgNodeHasChildren
		default:
			return err
		}
	}
	return nil
}

func (s *orgNodeService) List() ([]model.OrganizationNode, error) {
	if s.nodeRepo == nil {
		return nil, ErrInternal
	}
	return s.nodeRepo.FindAll()
}

// GetTree 构建组织树（根节点 + 递归 children）。
// 实现采用两遍扫描：
// 1. 第一遍创建所有节点并放入 map（nodeID -> node）
// 2. 第二遍按 parent 关系把子节点挂到父节点上
func (s *orgNodeService) GetTree() ([]*model.OrganizationNodeTree, error) {
	if s.nodeRepo == nil {
		return nil, ErrInternal
	}

	nodes, err := s.nodeRepo.FindAll()
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*model.OrganizationNodeTree, len(nodes))
	for _, node := range nodes {
		byID[node.NodeID] = &model.OrganizationNodeTree{
			NodeID:   node.NodeID,
			Name:     node.Name,
			ParentID: node.ParentID,
			Path:     node.Path,
			Level:    node.Level,
			Children: []*model.OrganizationNodeTree{},
		}
	}

	tree := make([]*model.OrganizationNodeTree, 0)
	for _, node := range nodes {
		current := byID[node.NodeID]
		if node.ParentID != nil && *node.ParentID != "" {
			if parent, ok := byID[*node.ParentID]; ok {
				parent.Children = append(parent.Children, current)
				continue
			}
		}
		// 父节点不存在或为空时，统一作为根节点返回，避免节点丢失。
		tree = append(tree, current)
	}
	return tree, nil
}

func (s *orgNodeService) FindByID(nodeID string) (*model.OrganizationNode, error) {
	if s.nodeRepo == nil {
		return nil, ErrInternal
	}
	return findOrgNode(s.nodeRepo, nodeID)
}

// findOrgNode 解析并校验节点 ID，统一错误映射。
// 各 service 共用，保证 "非法 ID"、"节点不存在" 的口径一致。
func findOrgNode(nodeRepo repository.OrganizationNodeRepository, nodeID string) (*model.OrganizationNode, error) {
	nodeID = strings.TrimSpace(nodeID)
	if nodeID == "" {
		return nil, ErrInvalidInput
	}
	if !isValidNodeID(nodeID) {
		return nil, ErrInvalidIdentifier
	}

	node, err := nodeRepo.FindByID(nodeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrgNodeNotFound
		}
		return nil, err
	}
	if node == nil {
		return nil, ErrOrgNodeNotFound
	}
	return node, nil
}

// validateNodeName 校验节点名：非空、不含路径分隔符、不超过 100 字符。
// "/" 是物化路径的分隔符，名字里出现会破坏前缀查询语义。
func validateNodeName(name string) error {
	if name == "" {
		return ErrInvalidInput
	}
	if strings.Contains(name, "/") {
		return ErrInvalidInput
	}
	if utf8.RuneCountInString(name) > 100 {
		return ErrInvalidInput
	}
	return nil
}

// isValidNodeID 校验标识符格式。节点 ID 是创建时生成的 UUID，
// 格式非法的外部输入在进入引擎之前就被拦截。
func isValidNodeID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// childPath 拼接子节点的物化路径。
func childPath(parentPath, name string) string {
	return parentPath + "/" + name
}

// isWithinSubtree 判断 candidate 是否等于 root 或位于 root 的子树内。
// 前缀判断带显式分隔符边界，"/App" 不会匹配 "/Apple"。
func isWithinSubtree(candidate, root string) bool {
	return candidate == root || strings.HasPrefix(candidate, root+"/")
}

// normalizeOptionalNodeID 把可选字符串指针做标准化：
// 1. nil -> nil
// 2. 空白字符串 -> nil
// 3. 非空 -> trim 后返回新指针
func normalizeOptionalNodeID(raw *string) *string {
	if raw == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*raw)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// normalizeActor 审计字段兜底：空白的操作者统一记为 system。
func normalizeActor(actor string) string {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return "system"
	}
	return actor
}
