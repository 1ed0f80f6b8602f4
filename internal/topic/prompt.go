package topic

import (
	"os"
	"strconv"
	"strings"
)

const DefaultPromptTemplate = `
Bạn là một trợ lý AI tạo dataset để huấn luyện chatbot chăm sóc người cao tuổi. Hãy tạo {count} cặp dữ liệu về chủ đề: {topic}

Yêu cầu:
- INPUT: Là những câu nói, câu hỏi, thắc mắc, phàn nàn của NGƯỜI CAO TUỔI VIỆT NAM
- OUTPUT: Là câu trả lời của CHATBOT - thân thiện, hữu ích, chi tiết
- Người cao tuổi sẽ nói về các vấn đề của họ, chatbot cần trả lời phù hợp
- Sử dụng ngôn ngữ Việt Nam, thân thiện, gần gụi
- INPUT phải thật tự nhiên như người già thực sự nói

Ví dụ về chủ đề {topic}:
- INPUT có thể là: "Tôi quên uống thuốc mất rồi", "Đau đầu quá", "Không biết nấu gì hôm nay"
- OUTPUT: Chatbot sẽ tư vấn, an ủi, đưa ra lời khuyên cụ thể

Định dạng output:
INPUT: [câu nói/hỏi của người cao tuổi]
OUTPUT: [câu trả lời của chatbot]
---
INPUT: [câu nói/hỏi tiếp theo của người cao tuổi]
OUTPUT: [câu trả lời của chatbot]
---
(tiếp tục...)
`

// RenderPrompt substitutes template variables for one generation request.
func RenderPrompt(template string, t Topic, count int) string {
	if strings.TrimSpace(template) == "" {
		template = DefaultPromptTemplate
	}
	label := strings.TrimSpace(t.Label)
	if label == "" {
		label = FallbackLabel
	}
	if count <= 0 {
		count = 10
	}

	rendered := template
	rendered = strings.ReplaceAll(rendered, "{topic}", label)
	rendered = strings.ReplaceAll(rendered, "{topic_id}", strconv.Itoa(t.ID))
	rendered = strings.ReplaceAll(rendered, "{count}", strconv.Itoa(count))
	return rendered
}

// ResolvePromptTemplate returns the override text, the contents of the
// QAGEN_PROMPT_TEMPLATE_FILE or configured template file, or the default.
func ResolvePromptTemplate(override, templateFile string) (string, error) {
	if strings.TrimSpace(override) != "" {
		return override, nil
	}

	if path := os.Getenv("QAGEN_PROMPT_TEMPLATE_FILE"); strings.TrimSpace(path) != "" {
		if data, err := os.ReadFile(path); err == nil {
			return string(data), nil
		}
	}

	if strings.TrimSpace(templateFile) != "" {
		data, err := os.ReadFile(templateFile)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	return DefaultPromptTemplate, nil
}
