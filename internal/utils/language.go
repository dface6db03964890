// Package utils holds small helpers shared across the pipeline.
package utils

import "strings"

// Language codes
const (
	LangEnglish  = "en"
	LangHebrew   = "he"
	LangArabic   = "ar"
	LangRussian  = "ru"
	LangChinese  = "zh"
	LangJapanese = "ja"
	LangKorean   = "ko"
)

// Language is a detected language with a rough confidence score
type Language struct {
	Code       string
	Name       string
	Confidence float64
}

// script describes one writing system by its Unicode block range
type script struct {
	code string
	name string
	lo   rune
	hi   rune
}

var scripts = []script{
	{LangHebrew, "Hebrew", 0x0590, 0x05FF},
	{LangArabic, "Arabic", 0x0600, 0x06FF},
	{LangRussian, "Russian", 0x0400, 0x04FF},
	{LangChinese, "Chinese", 0x4E00, 0x9FFF},
	{LangKorean, "Korean", 0xAC00, 0xD7AF},
}

// DetectLanguage guesses the language of the text from the writing system of
// its characters. Latin-script text comes back as English; the caller only
// needs a reply-language hint, not a precise identification.
func DetectLanguage(text string) Language {
	text = strings.TrimSpace(text)
	if text == "" {
		return Language{Code: LangEnglish, Name: "English"}
	}

	total := 0
	counts := make(map[string]int, len(scripts))
	kanaCount := 0
	for _, r := range text {
		total++
		for _, sc := range scripts {
			if r >= sc.lo && r <= sc.hi {
				counts[sc.code]++
				break
			}
		}
		if isKana(r) {
			kanaCount++
		}
	}

	best := Language{Code: LangEnglish, Name: "English"}
	for _, sc := range scripts {
		ratio := float64(counts[sc.code]) / float64(total)
		// 1% floor so a single stray character doesn't flip the language,
		// while short mixed-script messages still detect.
		if ratio > 0.01 && ratio > best.Confidence {
			best = Language{Code: sc.code, Name: sc.name, Confidence: ratio}
		}
	}

	// Kana distinguishes Japanese from Chinese; kanji alone counts as Chinese
	kanaRatio := float64(kanaCount) / float64(total)
	if kanaRatio > 0.05 {
		conf := best.Confidence + kanaRatio
		if conf > 1 {
			conf = 1
		}
		return Language{Code: LangJapanese, Name: "Japanese", Confidence: conf}
	}

	return best
}

func isKana(r rune) bool {
	return (r >= 0x3040 && r <= 0x309F) || (r >= 0x30A0 && r <= 0x30FF)
}

// GetLanguageInstruction returns a reply-language instruction for the AI
func GetLanguageInstruction(lang Language) string {
	switch lang.Code {
	case LangHebrew:
		return "Please respond in Hebrew (עברית)."
	case LangArabic:
		return "Please respond in Arabic (العربية)."
	case LangRussian:
		return "Please respond in Russian (Русский)."
	case LangChinese:
		return "Please respond in Chinese (中文)."
	case LangJapanese:
		return "Please respond in Japanese (日本語)."
	case LangKorean:
		return "Please respond in Korean (한국어)."
	default:
		return "Please respond in English."
	}
}
