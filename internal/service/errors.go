package service

import "errors"

// 哨兵错误：对外统一语义，隐藏底层实现细节。
// 用户域的哨兵错误在 user_service.go 中定义，这里集中组织树和权限域的错误。
var (
	// ErrInvalidInput 请求参数不合法（缺字段、空白、超长等）
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidIdentifier 标识符格式不合法（不是合法的 UUID），在进入引擎前拦截
	ErrInvalidIdentifier = errors.New("invalid identifier format")

	// ErrOrgNodeNotFound 组织节点不存在
	ErrOrgNodeNotFound = errors.New("organization node not found")
	// ErrParentNotFound 指定的父节点不存在
	ErrParentNotFound = errors.New("parent organization node not found")
	// ErrOrgNodePathTaken 目标物化路径已被占用（同父节点下同名）
	ErrOrgNodePathTaken = errors.New("organization node path already exists")
	// ErrOrgNodeHasChildren 节点下仍有子节点，禁止删除
	ErrOrgNodeHasChildren = errors.New("organization node has children")
	// ErrSelfMove 不允许把节点移动到它自己下面
	ErrSelfMove = errors.New("cannot move organization node under itself")
	// ErrCyclicMove 不允许把节点移动到它自己的子树里
	ErrCyclicMove = errors.New("cannot move organization node into its own subtree")
	// ErrDepthExceeded 创建或移动会使某个节点超过层级上限
	ErrDepthExceeded = errors.New("organization tree depth limit exceeded")

	// ErrPermissionNotAssigned 要移除的权限并未直接授权给该节点
	ErrPermissionNotAssigned = errors.New("permission is not assigned to organization node")
	// ErrMembershipNotFound 要解除的用户与节点关联不存在
	ErrMembershipNotFound = errors.New("user is not a member of organization node")
)
