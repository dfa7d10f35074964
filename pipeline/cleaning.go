package pipeline

import (
	"math"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"churnserve/data"
)

// CleaningRule 清洗规则：输入一张表，返回处理后的新表和被修改的单元格数量。
// 规则不得修改输入表，也不得增删行。
type CleaningRule interface {
	Apply(*data.Frame) (*data.Frame, int)
	Name() string
}

// CleaningStats 清洗统计
type CleaningStats struct {
	TotalProcessed int64            `json:"total_processed"`
	DroppedColumns int64            `json:"dropped_columns"`
	Corrected      int64            `json:"corrected"`
	Rules          map[string]int64 `json:"rules"`
	LastClean      time.Time        `json:"last_clean"`
}

// DataCleaner 数据清洗器
type DataCleaner struct {
	rules []CleaningRule

	stats     CleaningStats
	statsLock sync.RWMutex
}

// NewDataCleaner 创建数据清洗器：先删除标识列，再把以文本存储的数值列转成数值。
func NewDataCleaner(idColumn string, numericTextColumns ...string) *DataCleaner {
	cleaner := &DataCleaner{
		stats: CleaningStats{Rules: make(map[string]int64)},
	}
	if idColumn != "" {
		cleaner.AddRule(DropColumnRule{Column: idColumn})
	}
	for _, column := range numericTextColumns {
		cleaner.AddRule(CoerceNumericRule{Column: column})
	}
	return cleaner
}

// AddRule 添加清洗规则
func (dc *DataCleaner) AddRule(rule CleaningRule) {
	dc.rules = append(dc.rules, rule)
}

// Clean 清洗数据。行数不变，目标列不受影响，从不返回错误：
// 异常值按规则的策略处理，而不是拒绝。
func (dc *DataCleaner) Clean(frame *data.Frame) *data.Frame {
	dc.statsLock.Lock()
	defer dc.statsLock.Unlock()

	width := frame.Width()
	for _, rule := range dc.rules {
		var changed int
		frame, changed = rule.Apply(frame)
		dc.stats.Rules[rule.Name()] += int64(changed)
		dc.stats.Corrected += int64(changed)
	}
	dc.stats.TotalProcessed += int64(frame.Rows())
	dc.stats.DroppedColumns += int64(width - frame.Width())
	dc.stats.LastClean = time.Now()

	zap.L().Debug("cleaned frame",
		zap.Int("rows", frame.Rows()),
		zap.Int("columns", frame.Width()),
		zap.Int64("corrected", dc.stats.Corrected),
	)
	return frame
}

// Stats 获取清洗统计
func (dc *DataCleaner) Stats() CleaningStats {
	dc.statsLock.RLock()
	defer dc.statsLock.RUnlock()

	stats := dc.stats
	stats.Rules = make(map[string]int64, len(dc.stats.Rules))
	for k, v := range dc.stats.Rules {
		stats.Rules[k] = v
	}
	return stats
}

// DropColumnRule 删除标识列；列不存在时不做任何事。
type DropColumnRule struct {
	Column string
}

func (r DropColumnRule) Name() string { return "drop_column:" + r.Column }

func (r DropColumnRule) Apply(frame *data.Frame) (*data.Frame, int) {
	if !frame.Has(r.Column) {
		return frame, 0
	}
	return frame.Drop(r.Column), 0
}

// CoerceNumericRule 把列中的每个值转换为数值，无法解析的值（包括空白）记为 0。
// 未结账的新客户在原始数据里是一个空格，0 是业务上正确的取值。
type CoerceNumericRule struct {
	Column string
}

func (r CoerceNumericRule) Name() string { return "coerce_numeric:" + r.Column }

func (r CoerceNumericRule) Apply(frame *data.Frame) (*data.Frame, int) {
	col, err := frame.Column(r.Column)
	if err != nil {
		return frame, 0
	}

	values := make([]float64, col.Len())
	changed := 0
	for i := range values {
		var (
			v  float64
			ok bool
		)
		if col.Kind == data.Numeric {
			v = col.Numbers[i]
			ok = !math.IsNaN(v) && !math.IsInf(v, 0)
		} else if !col.Nulls[i] {
			v, ok = CoerceNumber(col.Texts[i])
		}
		if !ok {
			v = 0
			changed++
		}
		values[i] = v
	}
	if col.Kind == data.Numeric && changed == 0 {
		return frame, 0
	}

	out, err := frame.Replace(data.NewNumericColumn(r.Column, values))
	if err != nil {
		return frame, 0
	}
	return out, changed
}

// CoerceNumber parses token as a finite number. ok is false for anything else,
// including blank text; callers decide the fallback value.
func CoerceNumber(token string) (value float64, ok bool) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return 0, false
	}
	v, err := cast.ToFloat64E(trimmed)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
