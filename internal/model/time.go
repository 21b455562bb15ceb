package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// LocalDate 是一个仅含日期的自定义时间类型，序列化为 "YYYY-MM-DD"。
type LocalDate time.Time

const dateFormat = "2006-01-02"

// ParseLocalDate 解析 "YYYY-MM-DD" 格式的日期字符串。
func ParseLocalDate(s string) (LocalDate, error) {
	t, err := time.Parse(dateFormat, s)
	if err != nil {
		return LocalDate{}, fmt.Errorf("无效的日期格式（需要 YYYY-MM-DD）: %q", s)
	}
	return LocalDate(t), nil
}

// String 返回 "YYYY-MM-DD" 格式的日期。
func (d LocalDate) String() string {
	return time.Time(d).Format(dateFormat)
}

// MarshalJSON 实现 json.Marshaler。
func (d LocalDate) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", d.String())), nil
}

// UnmarshalJSON 实现 json.Unmarshaler。
func (d *LocalDate) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return nil
	}
	parsed, err := ParseLocalDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value 实现 driver.Valuer，写入数据库时输出日期字符串。
func (d LocalDate) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan 实现 sql.Scanner，兼容驱动返回的 time.Time、[]byte 与 string。
func (d *LocalDate) Scan(value interface{}) error {
	switch v := value.(type) {
	case time.Time:
		*d = LocalDate(v)
		return nil
	case []byte:
		parsed, err := ParseLocalDate(string(v))
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case string:
		parsed, err := ParseLocalDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case nil:
		return nil
	}
	return fmt.Errorf("无法将 %T 扫描为 LocalDate", value)
}
