package domain

// AreaSnapshot 某日期下单个区域的快照
type AreaSnapshot struct {
	Name      string    `json:"name"`
	Severity  Severity  `json:"severity"`
	Evolution Evolution `json:"evolution"`
}

// ProgressionPoint 每个日历日期一个点
type ProgressionPoint struct {
	Date  Date           `json:"date"`
	Areas []AreaSnapshot `json:"areas"`
}
