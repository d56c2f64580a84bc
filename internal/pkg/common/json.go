package common

import (
	"io"
	"strings"

	"github.com/goccy/go-json"
)

// ParseJSON 解析 JSON 字符串到結構體，整段必須是單一 JSON 值
func ParseJSON(data string, v interface{}) error {
	return json.Unmarshal([]byte(data), v)
}

// ParseJSONBytes 解析 JSON 位元組切片到結構體
func ParseJSONBytes(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// DecodeJSON 讀取整個 reader 後解析
func DecodeJSON(r io.Reader, v interface{}) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// ToJSON 將結構體轉換為 JSON 字符串
func ToJSON(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// MarshalJSON 將結構體轉換為 JSON 位元組
func MarshalJSON(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// ExtractJSONObject 取出第一個 { 到最後一個 } 之間的內容（含括號）
func ExtractJSONObject(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return raw[start : end+1], true
}

// StringSliceToString 將字符串切片轉換為逗號分隔的字符串
func StringSliceToString(slice []string) string {
	if len(slice) == 0 {
		return ""
	}
	return strings.Join(slice, ", ")
}

// Truncate 截斷過長的字串，用於日誌與錯誤訊息
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}

// WriteJSONIndent 以縮排格式寫出 JSON
func WriteJSONIndent(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
