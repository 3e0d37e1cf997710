package view

// Section はダッシュボードで表示中のセクション。常にいずれか1つが有効。
type Section string

const (
	SectionHome          Section = "home"
	SectionDesignPrompts Section = "design-prompts"
	SectionAIAvatar      Section = "ai-avatar"
	SectionViralContent  Section = "viral-content"
	SectionSlideshows    Section = "slideshows"
	SectionPricing       Section = "pricing"
	SectionSettings      Section = "settings"
	SectionSupport       Section = "support"
)

var sectionInfo = map[Section]struct {
	title      string
	label      string
	comingSoon bool
}{
	SectionHome:          {"Dashboard", "Home", false},
	SectionDesignPrompts: {"Design Prompts", "Design Prompts", false},
	SectionAIAvatar:      {"AI Avatar", "AI Avatar", false},
	SectionViralContent:  {"Viral Content Ideas", "Viral Content Ideas", false},
	SectionSlideshows:    {"TikTok Slideshows", "Slideshows", true},
	SectionPricing:       {"Pricing & Plans", "Upgrade", false},
	SectionSettings:      {"Settings", "Settings", false},
	SectionSupport:       {"Support", "Support", false},
}

// ParseSection はクエリの値をSectionに変換する。未知の値や空文字列はホームになる。
func ParseSection(raw string) Section {
	s := Section(raw)
	if _, ok := sectionInfo[s]; ok {
		return s
	}
	return SectionHome
}

// Valid は既知のセクションかどうかを返す。
func (s Section) Valid() bool {
	_, ok := sectionInfo[s]
	return ok
}

// Title はヘッダーに表示する見出しを返す。
func (s Section) Title() string {
	return sectionInfo[ParseSection(string(s))].title
}

// Label はサイドバーの表示名を返す。
func (s Section) Label() string {
	return sectionInfo[ParseSection(string(s))].label
}

// ComingSoon は未公開の機能かどうかを返す。サイドバーに"Soon"バッジを付ける。
func (s Section) ComingSoon() bool {
	return sectionInfo[ParseSection(string(s))].comingSoon
}

// ComingSoonBadge はサイドバーのバッジ文言。
const ComingSoonBadge = "Soon"

// NavItem はサイドバーの1項目。
type NavItem struct {
	Section Section `json:"section"`
	Label   string  `json:"label"`
	Badge   string  `json:"badge,omitempty"`
	Active  bool    `json:"active"`
	Href    string  `json:"href"`
}

// サイドバーの並び。上段がメイン、下段が料金とアカウント関連。
var (
	primaryNav   = []Section{SectionHome, SectionDesignPrompts, SectionAIAvatar, SectionViralContent, SectionSlideshows}
	secondaryNav = []Section{SectionPricing, SectionSettings, SectionSupport}
)

// Sections は全セクションを表示順に返す。
func Sections() []Section {
	out := make([]Section, 0, len(primaryNav)+len(secondaryNav))
	out = append(out, primaryNav...)
	return append(out, secondaryNav...)
}
