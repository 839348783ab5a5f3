package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/Johnie198946/Authen-sub002/internal/model"
	"github.com/Johnie198946/Authen-sub002/internal/service"

	"github.com/gin-gonic/gin"
)

func strPtr(v string) *string {
	return &v
}

type fakeOrgNodeService struct {
	createFn   func(name string, parentID *string, actor string) (*model.OrganizationNode, error)
	renameFn   func(nodeID, newName, actor string) (*model.OrganizationNode, error)
	moveFn     func(nodeID string, newParentID *string, actor string) (*model.OrganizationNode, error)
	deleteFn   func(nodeID string) error
	listFn     func() ([]model.OrganizationNode, error)
	getTreeFn  func() ([]*model.OrganizationNodeTree, error)
	findByIDFn func(nodeID string) (*model.OrganizationNode, error)
}

func (f *fakeOrgNodeService) Create(name string, parentID *string, actor string) (*model.OrganizationNode, error) {
	if f.createFn != nil {
		return f.createFn(name, parentID, actor)
	}
	return nil, nil
}

func (f *fakeOrgNodeService) Rename(nodeID, newName, actor string) (*model.OrganizationNode, error) {
	if f.renameFn != nil {
		return f.renameFn(nodeID, newName, actor)
	}
	return nil, nil
}

func (f *fakeOrgNodeService) Move(nodeID string, newParentID *string, actor string) (*model.OrganizationNode, error) {
	if f.moveFn != nil {
		return f.moveFn(nodeID, newParentID, actor)
	}
	return nil, nil
}

func (f *fakeOrgNodeService) Delete(nodeID string) error {
	if f.deleteFn != nil {
		return f.deleteFn(nodeID)
	}
	return nil
}

func (f *fakeOrgNodeService) List() ([]model.OrganizationNode, error) {
	if f.listFn != nil {
		return f.listFn()
	}
	return []model.OrganizationNode{}, nil
}

func (f *fakeOrgNodeService) GetTree() ([]*model.OrganizationNodeTree, error) {
	if f.getTreeFn != nil {
		return f.getTreeFn()
	}
	return []*model.OrganizationNodeTree{}, nil
}

func (f *fakeOrgNodeService) FindByID(nodeID string) (*model.OrganizationNode, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(nodeID)
	}
	return nil, nil
}

// injectAdmin 模拟 AuthMiddleware：把登录用户写入上下文。
func injectAdmin(c *gin.Context) {
	c.Set("user", &model.User{ID: 1, Username: "admin", Role: "ADMIN"})
	c.Next()
}

func newGinWithAdmin() *gin.Engine {
	r := gin.New()
	r.Use(injectAdmin)
	return r
}

func newOrgNodeRouter(h *OrgNodeHandler) *gin.Engine {
	r := newGinWithAdmin()
	r.POST("/org-nodes", h.Create)
	r.PUT("/org-nodes/:id/name", h.Rename)
	r.PUT("/org-nodes/:id/parent", h.Move)
	r.DELETE("/org-nodes/:id", h.Delete)
	r.GET("/org-nodes", h.List)
	r.GET("/org-nodes/tree", h.GetTree)
	return r
}

func TestOrgNodeCreate_Success(t *testing.T) {
	svc := &fakeOrgNodeService{
		createFn: func(name string, parentID *string, actor string) (*model.OrganizationNode, error) {
			if name != "Tech" || parentID != nil || actor != "admin" {
				t.Fatalf("unexpected args: name=%q parentID=%v actor=%q", name, parentID, actor)
			}
			return &model.OrganizationNode{NodeID: "n1", Name: name, Path: "/Tech", Level: 0}, nil
		},
	}
	r := newOrgNodeRouter(NewOrgNodeHandler(svc))

	w := doReq(r, http.MethodPost, "/org-nodes", `{"name":"Tech"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expect 201, got %d, body=%s", w.Code, w.Body.String())
	}

	var resp map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	data, ok := resp["data"].(map[string]any)
	if !ok {
		t.Fatalf("expect data to be map, got %T", resp["data"])
	}
	if data["path"] != "/Tech" {
		t.Fatalf("expect path=/Tech, got %v", data["path"])
	}
}

func TestOrgNodeCreate_WithParent(t *testing.T) {
	svc := &fakeOrgNodeService{
		createFn: func(name string, parentID *string, actor string) (*model.OrganizationNode, error) {
			if parentID == nil || *parentID != "p1" {
				t.Fatalf("expect parentId=p1, got %v", parentID)
			}
			return &model.OrganizationNode{NodeID: "n2", Name: name, ParentID: parentID, Path: "/Tech/Backend", Level: 1}, nil
		},
	}
	r := newOrgNodeRouter(NewOrgNodeHandler(svc))

	w := doReq(r, http.MethodPost, "/org-nodes", `{"name":"Backend","parentId":"p1"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expect 201, got %d, body=%s", w.Code, w.Body.String())
	}
}

func TestOrgNodeCreate_InvalidBody(t *testing.T) {
	r := newOrgNodeRouter(NewOrgNodeHandler(&fakeOrgNodeService{}))

	// 缺少 name 字段
	w := doReq(r, http.MethodPost, "/org-nodes", `{"parentId":"p1"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expect 400, got %d, body=%s", w.Code, w.Body.String())
	}

	// 非法 JSON
	w = doReq(r, http.MethodPost, "/org-nodes", `not json`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expect 400 for invalid json, got %d, body=%s", w.Code, w.Body.String())
	}
}

func TestOrgNodeCreate_PathTaken(t *testing.T) {
	svc := &fakeOrgNodeService{
		createFn: func(name string, parentID *string, actor string) (*model.OrganizationNode, error) {
			return nil, service.ErrOrgNodePathTaken
		},
	}
	r := newOrgNodeRouter(NewOrgNodeHandler(svc))

	w := doReq(r, http.MethodPost, "/org-nodes", `{"name":"Tech"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("expect 409, got %d, body=%s", w.Code, w.Body.String())
	}
}

func TestOrgNodeCreate_DepthExceeded(t *testing.T) {
	svc := &fakeOrgNodeService{
		createFn: func(name string, parentID *string, actor string) (*model.OrganizationNode, error) {
			return nil, service.ErrDepthExceeded
		},
	}
	r := newOrgNodeRouter(NewOrgNodeHandler(svc))

	w := doReq(r, http.MethodPost, "/org-nodes", `{"name":"TooDeep","parentId":"p1"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expect 400, got %d, body=%s", w.Code, w.Body.String())
	}
}

func TestOrgNodeRename_Success(t *testing.T) {
	svc := &fakeOrgNodeService{
		renameFn: func(nodeID, newName, actor string) (*model.OrganizationNode, error) {
			if nodeID != "n1" || newName != "Platform" {
				t.Fatalf("unexpected args: nodeID=%q newName=%q", nodeID, newName)
			}
			return &model.OrganizationNode{NodeID: nodeID, Name: newName, Path: "/Tech"}, nil
		},
	}
	r := newOrgNodeRouter(NewOrgNodeHandler(svc))

	w := doReq(r, http.MethodPut, "/org-nodes/n1/name", `{"name":"Platform"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expect 200, got %d, body=%s", w.Code, w.Body.String())
	}
}

func TestOrgNodeRename_NotFound(t *testing.T) {
	svc := &fakeOrgNodeService{
		renameFn: func(nodeID, newName, actor string) (*model.OrganizationNode, error) {
			return nil, service.ErrOrgNodeNotFound
		},
	}
	r := newOrgNodeRouter(NewOrgNodeHandler(svc))

	w := doReq(r, http.MethodPut, "/org-nodes/missing/name", `{"name":"Platform"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expect 404, got %d, body=%s", w.Code, w.Body.String())
	}
}

func TestOrgNodeMove_Success(t *testing.T) {
	svc := &fakeOrgNodeService{
		moveFn: func(nodeID string, newParentID *string, actor string) (*model.OrganizationNode, error) {
			if nodeID != "n2" || newParentID == nil || *newParentID != "n9" {
				t.Fatalf("unexpected args: nodeID=%q parentID=%v", nodeID, newParentID)
			}
			return &model.OrganizationNode{NodeID: nodeID, Path: "/Ops/Backend", Level: 1}, nil
		},
	}
	r := newOrgNodeRouter(NewOrgNodeHandler(svc))

	w := doReq(r, http.MethodPut, "/org-nodes/n2/parent", `{"parentId":"n9"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expect 200, got %d, body=%s", w.Code, w.Body.String())
	}
}

func TestOrgNodeMove_ToRoot(t *testing.T) {
	svc := &fakeOrgNodeService{
		moveFn: func(nodeID string, newParentID *string, actor string) (*model.OrganizationNode, error) {
			if newParentID != nil {
				t.Fatalf("expect nil parentID, got %v", *newParentID)
			}
			return &model.OrganizationNode{NodeID: nodeID, Path: "/Backend", Level: 0}, nil
		},
	}
	r := newOrgNodeRouter(NewOrgNodeHandler(svc))

	// parentId 缺失表示升为根节点
	w := doReq(r, http.MethodPut, "/org-nodes/n2/parent", `{}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expect 200, got %d, body=%s", w.Code, w.Body.String())
	}
}

func TestOrgNodeMove_EmptyBody(t *testing.T) {
	svc := &fakeOrgNodeService{
		moveFn: func(nodeID string, newParentID *string, actor string) (*model.OrganizationNode, error) {
			if newParentID != nil {
				t.Fatalf("expect nil parentID, got %v", *newParentID)
			}
			return &model.OrganizationNode{NodeID: nodeID, Path: "/Backend", Level: 0}, nil
		},
	}
	r := newOrgNodeRouter(NewOrgNodeHandler(svc))

	// 不带请求体等价于 {}，同样表示升为根节点
	w := doReq(r, http.MethodPut, "/org-nodes/n2/parent", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expect 200, got %d, body=%s", w.Code, w.Body.String())
	}
}

func TestOrgNodeMove_Cyclic(t *testing.T) {
	svc := &fakeOrgNodeService{
		moveFn: func(nodeID string, newParentID *string, actor string) (*model.OrganizationNode, error) {
			return nil, service.ErrCyclicMove
		},
	}
	r := newOrgNodeRouter(NewOrgNodeHandler(svc))

	w := doReq(r, http.MethodPut, "/org-nodes/n1/parent", `{"parentId":"n2"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("expect 409, got %d, body=%s", w.Code, w.Body.String())
	}
}

func TestOrgNodeMove_Self(t *testing.T) {
	svc := &fakeOrgNodeService{
		moveFn: func(nodeID string, newParentID *string, actor string) (*model.OrganizationNode, error) {
			return nil, service.ErrSelfMove
		},
	}
	r := newOrgNodeRouter(NewOrgNodeHandler(svc))

	w := doReq(r, http.MethodPut, "/org-nodes/n1/parent", `{"parentId":"n1"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expect 400, got %d, body=%s", w.Code, w.Body.String())
	}
}

func TestOrgNodeDelete_Success(t *testing.T) {
	svc := &fakeOrgNodeService{
		deleteFn: func(nodeID string) error {
			if nodeID != "n2" {
				t.Fatalf("unexpected node id: %s", nodeID)
			}
			return nil
		},
	}
	r := newOrgNodeRouter(NewOrgNodeHandler(svc))

	w := doReq(r, http.MethodDelete, "/org-nodes/n2", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expect 200, got %d, body=%s", w.Code, w.Body.String())
	}
}

func TestOrgNodeDelete_HasChildren(t *testing.T) {
	svc := &fakeOrgNodeService{
		deleteFn: func(nodeID string) error {
			return service.ErrOrgNodeHasChildren
		},
	}
	r := newOrgNodeRouter(NewOrgNodeHandler(svc))

	w := doReq(r, http.MethodDelete, "/org-nodes/n1", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("expect 409, got %d, body=%s", w.Code, w.Body.String())
	}
}

func TestOrgNodeGetTree_Success(t *testing.T) {
	svc := &fakeOrgNodeService{
		getTreeFn: func() ([]*model.OrganizationNodeTree, error) {
			return []*model.OrganizationNodeTree{
				{
					NodeID: "n1", Name: "Tech", Path: "/Tech", Level: 0,
					Children: []*model.OrganizationNodeTree{
						{NodeID: "n2", Name: "Backend", ParentID: strPtr("n1"), Path: "/Tech/Backend", Level: 1, Children: []*model.OrganizationNodeTree{}},
					},
				},
			}, nil
		},
	}
	r := newOrgNodeRouter(NewOrgNodeHandler(svc))

	w := doReq(r, http.MethodGet, "/org-nodes/tree", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expect 200, got %d, body=%s", w.Code, w.Body.String())
	}

	var resp map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	data, ok := resp["data"].([]any)
	if !ok || len(data) != 1 {
		t.Fatalf("expect 1 root node, got %v", resp["data"])
	}
	root, _ := data[0].(map[string]any)
	children, _ := root["children"].([]any)
	if len(children) != 1 {
		t.Fatalf("expect 1 child, got %v", root["children"])
	}
}

func TestOrgNodeList_Success(t *testing.T) {
	svc := &fakeOrgNodeService{
		listFn: func() ([]model.OrganizationNode, error) {
			return []model.OrganizationNode{
				{NodeID: "n1", Name: "Tech", Path: "/Tech", Level: 0},
				{NodeID: "n2", Name: "Backend", Path: "/Tech/Backend", Level: 1},
			}, nil
		},
	}
	r := newOrgNodeRouter(NewOrgNodeHandler(svc))

	w := doReq(r, http.MethodGet, "/org-nodes", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expect 200, got %d, body=%s", w.Code, w.Body.String())
	}

	var resp map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	data, ok := resp["data"].([]any)
	if !ok || len(data) != 2 {
		t.Fatalf("expect 2 nodes, got %v", resp["data"])
	}
}
