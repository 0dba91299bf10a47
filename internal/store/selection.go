package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Dkijas/EMPA-CELA-sub000/internal/anatomy"
	"github.com/Dkijas/EMPA-CELA-sub000/internal/domain"
)

// ErrNotFound 区域未被选择
var ErrNotFound = errors.New("selected area not found")

const selectionKeyPrefix = "empa:anatomy:"

// SelectionKey 每个患者一个 key，值为 SelectedArea 的 JSON 数组
func SelectionKey(patientID string) string {
	return selectionKeyPrefix + patientID + ":areas"
}

// SelectionStore 已选区域的持久化（整表读-改-写，无 schema 版本）
type SelectionStore struct {
	kv KV
}

func NewSelectionStore(kv KV) *SelectionStore {
	return &SelectionStore{kv: kv}
}

// List 读取患者的全部已选区域（按区域名排序，重复项后者覆盖前者）
func (s *SelectionStore) List(ctx context.Context, patientID string) ([]domain.SelectedArea, error) {
	raw, err := s.kv.Get(ctx, SelectionKey(patientID))
	if err != nil {
		if errors.Is(err, ErrMiss) {
			return []domain.SelectedArea{}, nil
		}
		return nil, fmt.Errorf("load selected areas: %w", err)
	}
	return Decode(raw)
}

// Get 读取单个区域
func (s *SelectionStore) Get(ctx context.Context, patientID, area string) (domain.SelectedArea, error) {
	list, err := s.List(ctx, patientID)
	if err != nil {
		return domain.SelectedArea{}, err
	}
	if i := indexOf(list, area); i >= 0 {
		return list[i], nil
	}
	return domain.SelectedArea{}, ErrNotFound
}

// Upsert 写入或整体替换（幂等）。读-改-写在同一个 KV.Update 内完成，
// prev 为写入前同名区域的记录，不存在时为 nil
func (s *SelectionStore) Upsert(ctx context.Context, patientID string, sa domain.SelectedArea) ([]domain.SelectedArea, *domain.SelectedArea, error) {
	var (
		list []domain.SelectedArea
		prev *domain.SelectedArea
	)
	err := s.kv.Update(ctx, SelectionKey(patientID), func(old string, _ bool) (string, error) {
		cur, err := Decode(old)
		if err != nil {
			return "", err
		}
		prev = nil
		if i := indexOf(cur, sa.Area); i >= 0 {
			p := cur[i]
			prev = &p
		}
		list = anatomy.Upsert(cur, sa)
		return Encode(list)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("save selected areas: %w", err)
	}
	return list, prev, nil
}

// Delete 删除单个区域并返回被删除的记录，不存在时返回 ErrNotFound
func (s *SelectionStore) Delete(ctx context.Context, patientID, area string) ([]domain.SelectedArea, domain.SelectedArea, error) {
	var (
		list    []domain.SelectedArea
		removed domain.SelectedArea
	)
	err := s.kv.Update(ctx, SelectionKey(patientID), func(old string, _ bool) (string, error) {
		cur, err := Decode(old)
		if err != nil {
			return "", err
		}
		i := indexOf(cur, area)
		if i < 0 {
			return "", ErrNotFound
		}
		removed = cur[i]
		list, _ = anatomy.Remove(cur, area)
		return Encode(list)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, domain.SelectedArea{}, ErrNotFound
		}
		return nil, domain.SelectedArea{}, fmt.Errorf("save selected areas: %w", err)
	}
	return list, removed, nil
}

func indexOf(list []domain.SelectedArea, area string) int {
	for i, sa := range list {
		if sa.Area == area {
			return i
		}
	}
	return -1
}

// Replace 以整个列表覆盖
func (s *SelectionStore) Replace(ctx context.Context, patientID string, list []domain.SelectedArea) error {
	raw, err := Encode(list)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, SelectionKey(patientID), raw, 0); err != nil {
		return fmt.Errorf("save selected areas: %w", err)
	}
	return nil
}

// Clear 删除患者的全部选择
func (s *SelectionStore) Clear(ctx context.Context, patientID string) error {
	return s.kv.Del(ctx, SelectionKey(patientID))
}

// Patients 列出有选择记录的患者
func (s *SelectionStore) Patients(ctx context.Context) ([]string, error) {
	keys, err := s.kv.ScanKeys(ctx, selectionKeyPrefix+"*:areas")
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		id := strings.TrimSuffix(strings.TrimPrefix(k, selectionKeyPrefix), ":areas")
		if id != "" {
			out = append(out, id)
		}
	}
	return out, nil
}

// Encode 序列化为 JSON 数组
func Encode(list []domain.SelectedArea) (string, error) {
	if list == nil {
		list = []domain.SelectedArea{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("encode selected areas: %w", err)
	}
	return string(b), nil
}

// Decode 反序列化；空字符串视为空列表
func Decode(raw string) ([]domain.SelectedArea, error) {
	if strings.TrimSpace(raw) == "" {
		return []domain.SelectedArea{}, nil
	}
	var list []domain.SelectedArea
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("decode selected areas: %w", err)
	}
	return anatomy.Dedupe(list), nil
}
