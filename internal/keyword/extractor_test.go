package keyword

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractShortInput(t *testing.T) {
	for _, in := range []string{"", " ", "가", "  a  "} {
		assert.Empty(t, Extract(in, SearchProfile), "input %q", in)
		assert.Empty(t, Extract(in, LocationProfile), "input %q", in)
	}
}

func TestExtractStripsParticle(t *testing.T) {
	got := Extract("경복궁을 가다", SearchProfile)

	assert.Equal(t, []string{"경복궁을 가다", "경복궁을", "경복궁", "가다"}, got)
	assert.Contains(t, got, "경복궁")
	assert.Contains(t, got, "경복궁을")
}

func TestExtractSubjectParticle(t *testing.T) {
	got := Extract("경복궁이 좋아", LocationProfile)
	assert.Equal(t, []string{"경복궁이 좋아", "경복궁이", "경복궁", "좋아"}, got)
}

func TestExtractProfilesUseDifferentStopwords(t *testing.T) {
	text := "오늘 경복궁 어떻게 가요"

	assert.Equal(t, []string{text, "경복궁", "가요"}, Extract(text, SearchProfile))
	assert.Equal(t, []string{text, "경복궁", "어떻게", "가요"}, Extract(text, LocationProfile))
}

func TestExtractPrefixLength(t *testing.T) {
	text := strings.Repeat("가", 50)

	search := Extract(text, SearchProfile)
	location := Extract(text, LocationProfile)

	assert.Equal(t, strings.Repeat("가", 30), search[0])
	assert.Equal(t, strings.Repeat("가", 40), location[0])
}

func TestExtractSplitsLongRuns(t *testing.T) {
	got := Extract("가나다라마바사아자차카타", LocationProfile)
	assert.Equal(t, []string{"가나다라마바사아자차카타", "가나다라마바사아자차", "카타"}, got)
}

func TestExtractNonHangulKeepsPrefixOnly(t *testing.T) {
	assert.Equal(t, []string{"Seoul tower"}, Extract("Seoul tower", SearchProfile))
}

func TestExtractRespectsCap(t *testing.T) {
	text := "가나다 라마바 사아자 차카타 파하가 나다라 마바사 아자차 카타파 하가나"

	assert.Len(t, Extract(text, SearchProfile), SearchProfile.Cap)
	assert.Len(t, Extract(text, LocationProfile), LocationProfile.Cap)
	assert.LessOrEqual(t, len(Extract(strings.Repeat(text+" ", 20), SearchProfile)), SearchProfile.Cap)
}

func TestExtractDeduplicates(t *testing.T) {
	got := Extract("경복궁 경복궁 경복궁", SearchProfile)
	assert.Equal(t, []string{"경복궁 경복궁 경복궁", "경복궁"}, got)
}

func TestWithStopwordsDoesNotMutateBase(t *testing.T) {
	custom := SearchProfile.WithStopwords("경복궁")

	assert.NotContains(t, Extract("경복궁 근정전", custom), "경복궁")
	assert.Contains(t, Extract("경복궁 근정전", SearchProfile), "경복궁")
}

func TestContainsAny(t *testing.T) {
	assert.True(t, ContainsAny("경복궁 날씨 어때?", []string{"비", "날씨"}))
	assert.False(t, ContainsAny("경복궁 입장료", []string{"비", "날씨"}))
	assert.False(t, ContainsAny("anything", []string{""}))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "경복", TruncateRunes("경복궁", 2))
	assert.Equal(t, "경복궁", TruncateRunes("경복궁", 10))
	assert.Equal(t, "경복궁", TruncateRunes("경복궁", 0))
}
