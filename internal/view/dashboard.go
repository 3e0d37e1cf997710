package view

import (
	"net/url"
	"unicode"
	"unicode/utf8"

	"github.com/hitoshi/vortox/internal/catalog"
	"github.com/hitoshi/vortox/internal/model"
)

// ダッシュボードのクエリパラメータ名。
const (
	QuerySection = "section"
	QueryFlipped = "flipped"
	QueryBilling = "billing"
)

// DashboardState はダッシュボードのUI状態。永続化せず、リクエストのクエリから毎回組み立てる。
type DashboardState struct {
	Section Section
	Flipped FlipSet
	Billing BillingPeriod
}

// DefaultDashboardState はホーム、裏返しなし、月額表示の状態を返す。
func DefaultDashboardState() DashboardState {
	return DashboardState{Section: SectionHome, Billing: BillingMonthly}
}

// ParseDashboardState はクエリからUI状態を復元する。
// 未知のセクションはホーム、未知の支払いサイクルは月額、未知のカードIDは無視する。
func ParseDashboardState(q url.Values) DashboardState {
	return DashboardState{
		Section: ParseSection(q.Get(QuerySection)),
		Flipped: ParseFlipSet(q.Get(QueryFlipped), catalog.IsPromptCardID),
		Billing: ParseBillingPeriod(q.Get(QueryBilling)),
	}
}

// Query は状態をクエリに変換する。既定値のパラメータは省略する。
func (s DashboardState) Query() url.Values {
	q := url.Values{}
	if sec := ParseSection(string(s.Section)); sec != SectionHome {
		q.Set(QuerySection, string(sec))
	}
	if s.Flipped.Len() > 0 {
		q.Set(QueryFlipped, s.Flipped.String())
	}
	if ParseBillingPeriod(string(s.Billing)) == BillingWeekly {
		q.Set(QueryBilling, string(BillingWeekly))
	}
	return q
}

// URL は状態を表すダッシュボードのURLを返す。
func (s DashboardState) URL() string {
	q := s.Query()
	if len(q) == 0 {
		return PathDashboard
	}
	return PathDashboard + "?" + q.Encode()
}

// WithSection はセクションだけを変えた状態を返す。
func (s DashboardState) WithSection(sec Section) DashboardState {
	next := s.clone()
	next.Section = ParseSection(string(sec))
	return next
}

// WithFlipToggled は指定カードの表裏だけを反転した状態を返す。
func (s DashboardState) WithFlipToggled(id string) DashboardState {
	next := s.clone()
	next.Flipped.Toggle(id)
	return next
}

// WithBilling は支払いサイクルだけを変えた状態を返す。
func (s DashboardState) WithBilling(b BillingPeriod) DashboardState {
	next := s.clone()
	next.Billing = ParseBillingPeriod(string(b))
	return next
}

func (s DashboardState) clone() DashboardState {
	s.Flipped = s.Flipped.Clone()
	return s
}

// DashboardUser はダッシュボードに表示するユーザー情報。
type DashboardUser struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Initial     string `json:"initial"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// QuickAction はホームのショートカットカード。
type QuickAction struct {
	Section     Section `json:"section"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Action      string  `json:"action"`
	Badge       string  `json:"badge,omitempty"`
	Href        string  `json:"href"`
}

// HomePanel はホームセクションの内容。
type HomePanel struct {
	Greeting     string        `json:"greeting"`
	Subtitle     string        `json:"subtitle"`
	QuickActions []QuickAction `json:"quick_actions"`
}

// PromptCardView は表裏の状態付きのプロンプトカード。
type PromptCardView struct {
	catalog.PromptCard
	Flipped    bool   `json:"flipped"`
	ToggleHref string `json:"toggle_href"`
}

// DesignPromptsPanel はデザインプロンプトセクションの内容。
type DesignPromptsPanel struct {
	Categories []string         `json:"categories"`
	Cards      []PromptCardView `json:"cards"`
}

// AIAvatarPanel はアバターセクションの内容。
type AIAvatarPanel struct {
	Avatars  []catalog.Avatar  `json:"avatars"`
	Features []catalog.Feature `json:"features"`
}

// ViralContentPanel はコンテンツアイデアセクションの内容。
type ViralContentPanel struct {
	TrendingTopics []catalog.TrendingTopic `json:"trending_topics"`
	ContentTypes   []catalog.ContentType   `json:"content_types"`
	Niches         []string                `json:"niches"`
	Platforms      []string                `json:"platforms"`
}

// SlideshowsPanel はスライドショーセクション（近日公開）の内容。
type SlideshowsPanel struct {
	ComingSoon bool              `json:"coming_soon"`
	Features   []catalog.Feature `json:"features"`
}

// BillingOption は支払いサイクル切り替えの選択肢。
type BillingOption struct {
	Period BillingPeriod `json:"period"`
	Label  string        `json:"label"`
	Active bool          `json:"active"`
	Href   string        `json:"href"`
}

// PlanView は現在の支払いサイクルでの価格付きのプラン。
type PlanView struct {
	catalog.Plan
	Price PriceTag `json:"price"`
}

// PricingPanel は料金セクションの内容。
type PricingPanel struct {
	Billing   BillingPeriod   `json:"billing"`
	Options   []BillingOption `json:"options"`
	Plans     []PlanView      `json:"plans"`
	Unlimited string          `json:"unlimited_threshold"`
	FAQ       []catalog.FAQ   `json:"faq"`
}

// SettingsPanel は設定セクションの内容。
type SettingsPanel struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	CurrentPlan string `json:"current_plan"`
	UpgradeHref string `json:"upgrade_href"`
}

// SupportPanel はサポートセクションの内容。
type SupportPanel struct {
	HelpTopics []catalog.HelpTopic `json:"help_topics"`
	FAQ        []catalog.FAQ       `json:"faq"`
}

// Dashboard はダッシュボード1画面分の表示モデル。
// 有効なセクションのパネルだけが設定され、他はnil。
type Dashboard struct {
	User    DashboardUser `json:"user"`
	Section Section       `json:"section"`
	Title   string        `json:"title"`
	Nav     []NavItem     `json:"nav"`
	Billing BillingPeriod `json:"billing"`
	Flipped []string      `json:"flipped"`

	Home          *HomePanel          `json:"home,omitempty"`
	DesignPrompts *DesignPromptsPanel `json:"design_prompts,omitempty"`
	AIAvatar      *AIAvatarPanel      `json:"ai_avatar,omitempty"`
	ViralContent  *ViralContentPanel  `json:"viral_content,omitempty"`
	Slideshows    *SlideshowsPanel    `json:"slideshows,omitempty"`
	Pricing       *PricingPanel       `json:"pricing,omitempty"`
	Settings      *SettingsPanel      `json:"settings,omitempty"`
	Support       *SupportPanel       `json:"support,omitempty"`
}

// BuildDashboard は認証済みユーザーとUI状態から表示モデルを組み立てる。
func BuildDashboard(user *model.User, state DashboardState) *Dashboard {
	state.Section = ParseSection(string(state.Section))
	state.Billing = ParseBillingPeriod(string(state.Billing))

	name := DisplayName(user)
	d := &Dashboard{
		User:    newDashboardUser(user, name),
		Section: state.Section,
		Title:   state.Section.Title(),
		Nav:     buildNav(state),
		Billing: state.Billing,
		Flipped: state.Flipped.IDs(),
	}

	switch state.Section {
	case SectionHome:
		d.Home = &HomePanel{
			Greeting:     "Welcome back, " + name + "!",
			Subtitle:     "Ready to create some viral content?",
			QuickActions: buildQuickActions(state),
		}
	case SectionDesignPrompts:
		d.DesignPrompts = buildDesignPrompts(state)
	case SectionAIAvatar:
		d.AIAvatar = &AIAvatarPanel{
			Avatars:  catalog.Avatars(),
			Features: catalog.AvatarFeatures(),
		}
	case SectionViralContent:
		d.ViralContent = &ViralContentPanel{
			TrendingTopics: catalog.TrendingTopics(),
			ContentTypes:   catalog.ContentTypes(),
			Niches:         catalog.ContentNiches(),
			Platforms:      catalog.Platforms(),
		}
	case SectionSlideshows:
		d.Slideshows = &SlideshowsPanel{
			ComingSoon: true,
			Features:   catalog.SlideshowFeatures(),
		}
	case SectionPricing:
		d.Pricing = buildPricing(state)
	case SectionSettings:
		d.Settings = &SettingsPanel{
			FullName:    name,
			Email:       d.User.Email,
			CurrentPlan: catalog.CurrentPlanLabel,
			UpgradeHref: state.WithSection(SectionPricing).URL(),
		}
	case SectionSupport:
		d.Support = &SupportPanel{
			HelpTopics: catalog.HelpTopics(),
			FAQ:        catalog.SupportFAQ(),
		}
	}

	return d
}

func newDashboardUser(user *model.User, name string) DashboardUser {
	du := DashboardUser{DisplayName: name, Initial: initial(name)}
	if user != nil {
		du.ID = user.ID
		du.Email = user.Email
		du.AvatarURL = user.AvatarURL
	}
	return du
}

func initial(name string) string {
	r, _ := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return ""
	}
	return string(unicode.ToUpper(r))
}

func buildNav(state DashboardState) []NavItem {
	sections := Sections()
	items := make([]NavItem, 0, len(sections))
	for _, sec := range sections {
		item := NavItem{
			Section: sec,
			Label:   sec.Label(),
			Active:  sec == state.Section,
			Href:    state.WithSection(sec).URL(),
		}
		if sec.ComingSoon() {
			item.Badge = ComingSoonBadge
		}
		items = append(items, item)
	}
	return items
}

func buildQuickActions(state DashboardState) []QuickAction {
	actions := []QuickAction{
		{Section: SectionDesignPrompts, Title: "Design Prompts", Description: "Get AI-powered design ideas", Action: "Get Started →"},
		{Section: SectionAIAvatar, Title: "AI Avatar", Description: "Create realistic AI avatars", Action: "Create Now →"},
		{Section: SectionViralContent, Title: "Viral Content Ideas", Description: "Generate trending content ideas", Action: "Generate →"},
		{Section: SectionSlideshows, Title: "TikTok Slideshows", Description: "Create viral slideshows", Action: "Learn More →", Badge: "Coming Soon"},
	}
	for i := range actions {
		actions[i].Href = state.WithSection(actions[i].Section).URL()
	}
	return actions
}

func buildDesignPrompts(state DashboardState) *DesignPromptsPanel {
	cards := catalog.PromptCards()
	views := make([]PromptCardView, 0, len(cards))
	for _, c := range cards {
		views = append(views, PromptCardView{
			PromptCard: c,
			Flipped:    state.Flipped.Contains(c.ID),
			ToggleHref: state.WithFlipToggled(c.ID).URL(),
		})
	}
	return &DesignPromptsPanel{
		Categories: catalog.PromptCategories(),
		Cards:      views,
	}
}

func buildPricing(state DashboardState) *PricingPanel {
	plans := catalog.Plans()
	views := make([]PlanView, 0, len(plans))
	for _, p := range plans {
		views = append(views, PlanView{Plan: p, Price: PriceFor(p, state.Billing)})
	}

	options := make([]BillingOption, 0, 2)
	for _, b := range []BillingPeriod{BillingWeekly, BillingMonthly} {
		options = append(options, BillingOption{
			Period: b,
			Label:  b.Label(),
			Active: b == state.Billing,
			Href:   state.WithBilling(b).URL(),
		})
	}

	return &PricingPanel{
		Billing:   state.Billing,
		Options:   options,
		Plans:     views,
		Unlimited: UnlimitedThreshold(state.Billing),
		FAQ:       catalog.PricingFAQ(),
	}
}
