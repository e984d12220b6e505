package i18n

import "sync"

// Translator retrieves localized messages for error codes.
// data provides optional metadata to embed in the message (for example,
// "group" or "field").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

var messages = map[string]map[string]string{
	"en": {
		"duplicate_name":            "duplicate name",
		"duplicate_id":              "duplicate id",
		"duplicate_group_type":      "duplicate group type",
		"duplicate_field":           "duplicate field",
		"unresolved_super":          "unresolved super-group",
		"inheritance_cycle":         "inheritance cycle",
		"hierarchy_mismatch":        "runtime type hierarchy does not match super-groups",
		"unresolved_reference":      "unresolved reference",
		"reference_cycle":           "reference cycle",
		"illegal_dynamic_reference": "dynamic reference does not target a group",
		"nested_sequence":           "sequence of sequence",
		"missing_binding":           "missing binding",
		"invalid_type":              "invalid type",
		"unknown_group":             "unknown group",
		"unknown_field":             "unknown field",
		"no_such_symbol":            "no such symbol",
		"super_mismatch":            "super-group mismatch",
		"missing_required":          "required field missing in source",
		"required_change":           "illegal change of requiredness",
		"type_mismatch":             "incompatible field types",
	},
	"ja": {
		"duplicate_name":            "名前が重複しています",
		"duplicate_id":              "IDが重複しています",
		"duplicate_group_type":      "グループ型が重複しています",
		"duplicate_field":           "フィールドが重複しています",
		"unresolved_super":          "スーパーグループが解決できません",
		"inheritance_cycle":         "継承が循環しています",
		"hierarchy_mismatch":        "実行時の型階層がスーパーグループと一致しません",
		"unresolved_reference":      "参照が解決できません",
		"reference_cycle":           "参照が循環しています",
		"illegal_dynamic_reference": "動的参照の対象がグループではありません",
		"nested_sequence":           "シーケンスのシーケンスです",
		"missing_binding":           "バインディングがありません",
		"invalid_type":              "型が不正です",
		"unknown_group":             "未知のグループです",
		"unknown_field":             "未知のフィールドです",
		"no_such_symbol":            "シンボルが存在しません",
		"super_mismatch":            "スーパーグループが一致しません",
		"missing_required":          "必須フィールドがソースにありません",
		"required_change":           "必須指定の変更は許可されません",
		"type_mismatch":             "フィールドの型に互換性がありません",
	},
}

func (t dictTranslator) Message(code string, data map[string]string) string {
	if m, ok := messages[t.lang][code]; ok {
		return m
	}
	return code
}

var (
	mu                           = sync.RWMutex{}
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	SetTranslator(dictTranslator{lang: lang})
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	mu.Lock()
	currentTranslator = tr
	mu.Unlock()
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(code, data)
}
