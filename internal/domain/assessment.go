package domain

import "time"

// ScoreResult 问卷计分结果（视图投影，不单独持久化）
type ScoreResult struct {
	Total           int            `json:"total"`
	Selections      map[string]int `json:"selections"`
	Tier            int            `json:"tier"`
	Scheme          string         `json:"scheme"`
	Recommendations []string       `json:"recommendations"`
	// OutOfRange 总分超出所选方案的区间，tier 为兜底值
	OutOfRange bool `json:"outOfRange"`
}

// Patient 报告中打印的患者信息
type Patient struct {
	Name       string `json:"name"`
	DocumentID string `json:"documentId,omitempty"`
	BirthDate  Date   `json:"birthDate"`
	Evaluator  string `json:"evaluator,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// Assessment 一次保存的评估（问卷结果 + 当时的区域快照）
type Assessment struct {
	ID        string         `json:"id"`
	PatientID string         `json:"patientId"`
	Patient   Patient        `json:"patient"`
	Score     ScoreResult    `json:"score"`
	Areas     []SelectedArea `json:"areas"`
	CreatedAt time.Time      `json:"createdAt"`
}
