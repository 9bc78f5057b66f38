package weather

// wmoDescriptions maps WMO weather interpretation codes to Korean labels.
var wmoDescriptions = map[int]string{
	0:  "맑음",
	1:  "대체로 맑음",
	2:  "부분적 흐림",
	3:  "흐림",
	45: "안개",
	48: "서리 안개",
	51: "이슬비(약함)",
	53: "이슬비(보통)",
	55: "이슬비(강함)",
	56: "진한 이슬비(약함)",
	57: "진한 이슬비(강함)",
	61: "비(약함)",
	63: "비(보통)",
	65: "비(강함)",
	66: "진한 비(약함)",
	67: "진한 비(강함)",
	71: "눈(약함)",
	73: "눈(보통)",
	75: "눈(강함)",
	77: "진눈깨비",
	80: "소나기(약함)",
	81: "소나기(보통)",
	82: "소나기(강함)",
	85: "눈 소나기(약함)",
	86: "눈 소나기(강함)",
	95: "뇌우",
	96: "뇌우+작은 우박",
	99: "뇌우+큰 우박",
}

// OtherDescription labels codes missing from the table.
const OtherDescription = "기타"

// Describe returns the label for a WMO code.
func Describe(code int) string {
	if d, ok := wmoDescriptions[code]; ok {
		return d
	}
	return OtherDescription
}
