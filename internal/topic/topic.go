// Package topic holds the fixed set of conversation topics used to seed
// generation prompts.
package topic

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Topic is a generation category. The label is only used for prompts and
// log lines.
type Topic struct {
	ID    int
	Label string
}

func (t Topic) String() string {
	return fmt.Sprintf("%d. %s", t.ID, t.Label)
}

// ShortLabel returns the label without its parenthesised examples.
func (t Topic) ShortLabel() string {
	label := t.Label
	if idx := strings.Index(label, "("); idx > 0 {
		label = label[:idx]
	}
	return strings.TrimSpace(label)
}

// FallbackLabel is used when a prompt is rendered for an unknown topic.
const FallbackLabel = "Chăm sóc người cao tuổi tổng quát"

var defaults = []Topic{
	{ID: 1, Label: "Nhắc nhở hằng ngày (uống thuốc, lịch tái khám, giờ ăn, uống nước, tập thể dục)"},
	{ID: 2, Label: "Chăm sóc sức khỏe (dinh dưỡng, triệu chứng bệnh, lời khuyên y tế, thuốc, vật lý trị liệu)"},
	{ID: 3, Label: "Sức khỏe tinh thần (cải thiện giấc ngủ, giải trí, tâm sự, hoạt động phấn chấn)"},
	{ID: 4, Label: "Giao tiếp & hỗ trợ cảm xúc (trò chuyện, kể chuyện, lắng nghe, tương tác thân thiện)"},
	{ID: 5, Label: "Đi chợ, nấu ăn, bếp núc (thực đơn, mẹo nấu ăn, bảo quản thực phẩm, mua hàng)"},
	{ID: 6, Label: "Việc nhà (dọn dẹp, sắp xếp đồ đạc, mẹo vặt gia đình)"},
	{ID: 7, Label: "Giải trí (phim, cải lương, sách, trò chơi, truyện cười)"},
	{ID: 8, Label: "Tâm linh – truyền thống (lễ nghi, cúng giỗ, Tết, chuyện dân gian, ca dao)"},
	{ID: 9, Label: "Quan hệ gia đình (gọi điện con cháu, lời yêu thương, dạy con cháu)"},
	{ID: 10, Label: "Công nghệ (điện thoại, Zalo, video call, tin lừa đảo, chatbot)"},
	{ID: 11, Label: "Thông báo tự động (nhắc lịch, chào buổi sáng/tối, thời tiết)"},
	{ID: 12, Label: "Câu hỏi thường gặp (ăn uống, sức khỏe, đau nhức)"},
}

// Default returns a copy of the built-in topic set ordered by ID.
func Default() []Topic {
	out := make([]Topic, len(defaults))
	copy(out, defaults)
	return out
}

// Sorted returns topics ordered ascending by ID without touching the input.
func Sorted(topics []Topic) []Topic {
	out := make([]Topic, len(topics))
	copy(out, topics)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Lookup finds a topic by ID in the built-in set.
func Lookup(id int) (Topic, bool) {
	for _, t := range defaults {
		if t.ID == id {
			return t, true
		}
	}
	return Topic{}, false
}

// ParseID resolves a user supplied topic number such as "3".
func ParseID(raw string) (Topic, error) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return Topic{}, fmt.Errorf("invalid topic number %q", raw)
	}
	t, ok := Lookup(id)
	if !ok {
		return Topic{}, fmt.Errorf("topic %d not found (valid: 1-%d)", id, len(defaults))
	}
	return t, nil
}

// Select narrows the built-in set to the given IDs. An empty list selects
// every topic.
func Select(ids []int) ([]Topic, error) {
	if len(ids) == 0 {
		return Default(), nil
	}
	out := make([]Topic, 0, len(ids))
	seen := map[int]bool{}
	for _, id := range ids {
		if seen[id] {
			continue
		}
		t, ok := Lookup(id)
		if !ok {
			return nil, fmt.Errorf("topic %d not found", id)
		}
		seen[id] = true
		out = append(out, t)
	}
	return Sorted(out), nil
}
