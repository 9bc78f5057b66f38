package chat

import "strings"

// SystemPrompt is the tour guide persona.
const SystemPrompt = `당신은 한국의 역사와 문화에 정통한 'Quest of Seoul' AI 투어 가이드입니다.
사용자가 방문 중인 투어와 관련된 질문에 친근하고 전문적으로 답변하세요.
답변은 2~4문장 정도로 간결하게, 한국어로 작성하세요.
제공된 투어/스텝/가이드 정보를 활용해 정확하고 흥미로운 답변을 해주세요.
정보가 없는 경우 일반적인 한국 역사·문화 지식으로 답변할 수 있습니다.`

// User-facing fallback texts.
const (
	DisabledMessage = "AI 가이드가 비활성화되어 있습니다. ai-server에 OPENAI_API_KEY를 설정해주세요."
	ErrorMessage    = "죄송합니다. AI 응답 생성 중 오류가 발생했습니다. 잠시 후 다시 시도해 주세요."
	EmptyMessage    = "답변을 생성할 수 없습니다."
)

const (
	tourContextHeader = "[투어 컨텍스트]"
	referenceHeader   = "[참고 정보 - 실시간 검색 결과]"
)

// SystemMessage builds the system instruction. The tour context comes first;
// retrieved references follow as a lower-priority tier when present.
func SystemMessage(tourContext, enrichment string) string {
	var b strings.Builder
	b.WriteString(SystemPrompt)
	b.WriteString("\n\n" + tourContextHeader + "\n")
	b.WriteString(tourContext)
	if strings.TrimSpace(enrichment) != "" {
		b.WriteString("\n\n" + referenceHeader + "\n")
		b.WriteString(enrichment)
	}
	return b.String()
}
