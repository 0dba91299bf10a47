// Package anatomy 是身体图的视图模型：区域选择状态机、标记渲染模型与严重度映射
package anatomy

import (
	"errors"
	"time"

	"github.com/Dkijas/EMPA-CELA-sub000/internal/catalog"
	"github.com/Dkijas/EMPA-CELA-sub000/internal/domain"
)

// State 选择状态机的状态
type State string

const (
	StateIdle         State = "idle"
	StateAreaHovered  State = "area-hovered"
	StateFormOpenAdd  State = "form-open-add"
	StateFormOpenEdit State = "form-open-edit"
)

// ErrNoAreaHovered 当前没有悬停区域，点击无效
var ErrNoAreaHovered = errors.New("no area under pointer")

// ErrFormNotOpen 表单未打开时提交
var ErrFormNotOpen = errors.New("area form is not open")

// Session 单个身体图的交互状态（单线程使用，不加锁）
type Session struct {
	cat     *catalog.Catalog
	now     func() time.Time
	state   State
	hovered string
	areas   []domain.SelectedArea
}

// NewSession 以已有的选择初始化；now 为 nil 时使用 time.Now
func NewSession(cat *catalog.Catalog, existing []domain.SelectedArea, now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	return &Session{
		cat:   cat,
		now:   now,
		state: StateIdle,
		areas: Dedupe(existing),
	}
}

// State 当前状态
func (s *Session) State() State { return s.state }

// Hovered 当前悬停/编辑中的区域名
func (s *Session) Hovered() string { return s.hovered }

// Areas 当前选择（按区域名排序的副本）
func (s *Session) Areas() []domain.SelectedArea {
	out := make([]domain.SelectedArea, len(s.areas))
	copy(out, s.areas)
	return out
}

// Selected 查找已选区域
func (s *Session) Selected(name string) (domain.SelectedArea, bool) {
	for _, sa := range s.areas {
		if sa.Area == name {
			return sa, true
		}
	}
	return domain.SelectedArea{}, false
}

// Hover 指针移动；表单打开时忽略
func (s *Session) Hover(x, y float64) State {
	if s.formOpen() {
		return s.state
	}
	if a, ok := s.cat.Nearest(x, y); ok {
		s.state = StateAreaHovered
		s.hovered = a.Name
	} else {
		s.state = StateIdle
		s.hovered = ""
	}
	return s.state
}

// Click 在悬停区域上点击：已有记录进入编辑，否则进入新增；返回预填表单
func (s *Session) Click() (Form, error) {
	if s.state != StateAreaHovered {
		return Form{}, ErrNoAreaHovered
	}
	return s.open(s.hovered), nil
}

// Open 不经悬停直接打开某区域的表单（如区域列表中的编辑按钮）
func (s *Session) Open(name string) (Form, error) {
	if _, ok := s.cat.Lookup(name); !ok {
		return Form{}, catalog.ErrUnknownArea
	}
	return s.open(name), nil
}

func (s *Session) open(name string) Form {
	s.hovered = name
	if sa, ok := s.Selected(name); ok {
		s.state = StateFormOpenEdit
		return FormFor(sa)
	}
	s.state = StateFormOpenAdd
	return Form{Area: name, StartDate: domain.NewDate(s.now()).String()}
}

// Cancel 关闭表单回到 idle
func (s *Session) Cancel() {
	s.state = StateIdle
	s.hovered = ""
}

// Submit 校验并写入（按区域名覆盖）；失败时状态不变
func (s *Session) Submit(f Form) (domain.SelectedArea, error) {
	if !s.formOpen() {
		return domain.SelectedArea{}, ErrFormNotOpen
	}
	f.Area = s.hovered
	sa, err := BuildSelectedArea(s.cat, f, s.now())
	if err != nil {
		return domain.SelectedArea{}, err
	}
	s.areas = Upsert(s.areas, sa)
	s.Cancel()
	return sa, nil
}

// Remove 显式删除
func (s *Session) Remove(name string) bool {
	var removed bool
	s.areas, removed = Remove(s.areas, name)
	return removed
}

func (s *Session) formOpen() bool {
	return s.state == StateFormOpenAdd || s.state == StateFormOpenEdit
}
