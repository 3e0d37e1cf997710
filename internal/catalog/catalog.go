// Package catalog はダッシュボードに表示する静的コンテンツを提供する。
// 料金プラン、デザインプロンプト、アバター、トレンドトピック、FAQなど、
// ライフサイクルを持たない表示用データのみを扱う。
// 各関数は呼び出しごとに新しいスライスを返すため、呼び出し側で変更しても共有されない。
package catalog

// Plan は料金プラン。価格はUSD（整数ドル）。
type Plan struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	WeeklyPrice      int      `json:"weekly_price"`
	MonthlyPrice     int      `json:"monthly_price"`
	MonthlyListPrice int      `json:"monthly_list_price"` // 割引前の月額
	Popular          bool     `json:"popular"`
	Features         []string `json:"features"`
}

// MonthlySavingsLabel は月額払いの割引表示。
const MonthlySavingsLabel = "Save 30%"

// Plans は料金プランを安い順に返す。
func Plans() []Plan {
	return []Plan{
		{
			ID:               "starter",
			Name:             "Starter",
			WeeklyPrice:      7,
			MonthlyPrice:     19,
			MonthlyListPrice: 28,
			Features: []string{
				"Access to all design prompts",
				"New prompts added weekly",
				"Browse by category (Fashion, Tech, Travel, etc.)",
				"Copy prompts for your projects",
			},
		},
		{
			ID:               "growth",
			Name:             "Growth",
			WeeklyPrice:      17,
			MonthlyPrice:     49,
			MonthlyListPrice: 68,
			Popular:          true,
			Features: []string{
				"Everything in Starter, plus...",
				"50 TikTok slideshows per month",
				"AI slideshow generator access",
			},
		},
		{
			ID:               "scale",
			Name:             "Scale",
			WeeklyPrice:      33,
			MonthlyPrice:     95,
			MonthlyListPrice: 132,
			Features: []string{
				"Everything in Growth, plus...",
				"150 TikTok slideshows per month",
				"Priority support",
			},
		},
	}
}

// 無制限プランを案内する動画本数のしきい値。
const (
	UnlimitedWeeklyThreshold  = "38+ per week"
	UnlimitedMonthlyThreshold = "150+ per month"
)

// PromptCard はデザインプロンプトのカード。表面に画像、裏面にプロンプト文を表示する。
type PromptCard struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Image    string `json:"image"`
	Prompt   string `json:"prompt"`
}

// PromptCategories はデザインプロンプトのフィルタタグ。先頭の"All"は全件を表す。
func PromptCategories() []string {
	return []string{"All", "Fashion", "Athletics", "Luxury", "Technology", "Food & Drink", "Travel", "Lifestyle"}
}

// PromptCards はデザインプロンプトのカード一覧を返す。
func PromptCards() []PromptCard {
	return []PromptCard{
		{
			ID:       "fashion-1",
			Category: "Fashion",
			Image:    "/designs/1.png",
			Prompt:   "A minimalist fashion photoshoot featuring a model in elegant streetwear, soft natural lighting, urban background with modern architecture",
		},
		{
			ID:       "athletics-1",
			Category: "Athletics",
			Image:    "/designs/2.png",
			Prompt:   "Dynamic fitness photography showing an athlete in motion, high-energy workout scene, dramatic lighting, gym environment with modern equipment",
		},
		{
			ID:       "luxury-1",
			Category: "Luxury",
			Image:    "/designs/3.png",
			Prompt:   "Elegant luxury product photography, premium watch on marble surface, golden hour lighting, sophisticated composition with rich textures",
		},
		{
			ID:       "technology-1",
			Category: "Technology",
			Image:    "/designs/4.png",
			Prompt:   "Futuristic tech product showcase, sleek smartphone with holographic interface, neon lighting, dark background with digital elements",
		},
		{
			ID:       "food-1",
			Category: "Food & Drink",
			Image:    "/designs/5.png",
			Prompt:   "Artisanal coffee photography, steaming cup with latte art, warm wooden table, natural morning light, cozy café atmosphere",
		},
		{
			ID:       "travel-1",
			Category: "Travel",
			Image:    "/designs/6.png",
			Prompt:   "Breathtaking landscape photography, mountain vista at sunset, dramatic clouds, adventurous traveler silhouette, inspiring wanderlust mood",
		},
		{
			ID:       "lifestyle-1",
			Category: "Lifestyle",
			Image:    "/designs/7.png",
			Prompt:   "Modern lifestyle photography, minimalist home decor, natural textures, soft ambient lighting, Instagram-worthy aesthetic",
		},
	}
}

// IsPromptCardID は既知のプロンプトカードIDかどうかを返す。
func IsPromptCardID(id string) bool {
	for _, c := range PromptCards() {
		if c.ID == id {
			return true
		}
	}
	return false
}

// PromptCardsByCategory はカテゴリで絞り込んだカードを返す。空または"All"の場合は全件。
// 未知のカテゴリの場合は空のスライスを返す。
func PromptCardsByCategory(category string) []PromptCard {
	cards := PromptCards()
	if category == "" || category == "All" {
		return cards
	}
	filtered := make([]PromptCard, 0, len(cards))
	for _, c := range cards {
		if c.Category == category {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// Avatar はアバターギャラリーの画像。
type Avatar struct {
	ID    string `json:"id"`
	Image string `json:"image"`
	Alt   string `json:"alt"`
}

// Avatars はアバターギャラリーを返す。
func Avatars() []Avatar {
	return []Avatar{
		{ID: "avatar-1", Image: "/avatars/avatar-1.jpg", Alt: "AI Avatar 1"},
		{ID: "avatar-2", Image: "/avatars/avatar-2.jpg", Alt: "AI Avatar 2"},
		{ID: "avatar-3", Image: "/avatars/avatar-3.jpg", Alt: "AI Avatar 3"},
		{ID: "avatar-4", Image: "/avatars/avatar-4.jpg", Alt: "AI Avatar 4"},
		{ID: "avatar-5", Image: "/avatars/avatar-5.jpg", Alt: "AI Avatar 5"},
		{ID: "avatar-6", Image: "/avatars/avatar-6.jpg", Alt: "AI Avatar 6"},
	}
}

// Feature は機能紹介の見出しと説明。
type Feature struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// AvatarFeatures はアバター生成の機能紹介を返す。
func AvatarFeatures() []Feature {
	return []Feature{
		{"Custom Avatars", "Generate unique AI avatars tailored to your brand and style preferences"},
		{"Video Ready", "Create avatars optimized for video content and social media platforms"},
		{"Instant Generation", "Get high-quality avatars in seconds with our advanced AI technology"},
	}
}

// SlideshowFeatures はスライドショー作成（近日公開）の機能紹介を返す。
func SlideshowFeatures() []Feature {
	return []Feature{
		{"AI Content Generation", "Generate engaging slideshow content with AI prompts and templates"},
		{"Visual Templates", "Choose from multiple slideshow types and visual styles"},
		{"Mobile Optimized", "Perfect for TikTok's mobile-first vertical format"},
	}
}

// TrendingTopic は今週のトレンドトピック。
type TrendingTopic struct {
	Rank        int    `json:"rank"`
	Badge       string `json:"badge"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// TrendingTopics はトレンドトピックを順位順に返す。
func TrendingTopics() []TrendingTopic {
	return []TrendingTopic{
		{1, "Trending", "AI Productivity Hacks", "Show how AI tools save time in daily tasks"},
		{2, "Hot", "Micro-Habits That Changed My Life", "Small daily changes with big impact"},
		{3, "Rising", "Budget-Friendly Home Upgrades", "Transform your space without breaking the bank"},
		{4, "Viral", "Things I Wish I Knew at 20", "Life lessons and wisdom sharing"},
		{5, "Growing", "Side Hustle Success Stories", "Real people making extra income"},
		{6, "Steady", "Sustainable Living Tips", "Easy ways to live more eco-friendly"},
	}
}

// ContentType は反応の良いコンテンツ形式。
type ContentType struct {
	Rank        int    `json:"rank"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ContentTypes はコンテンツ形式を返す。
func ContentTypes() []ContentType {
	return []ContentType{
		{1, "Before & After Transformations", "Show dramatic changes in any area - room makeovers, fitness journeys, skill development"},
		{2, "Quick Tips & Hacks", `"3 ways to...", "5 secrets to...", "The hack that changed everything"`},
		{3, "Behind the Scenes", "Show your process, daily routine, or how you create content"},
		{4, "Myth Busting", `"Actually, that's not true..." - correct common misconceptions in your niche`},
		{5, "Relatable Struggles", `"POV: When you...", "Things that just make sense", "We've all been there"`},
		{6, "Trend Participation", "Put your own spin on trending sounds, challenges, or formats"},
	}
}

// ContentNiches はコンテンツアイデア生成のジャンル選択肢。
func ContentNiches() []string {
	return []string{
		"Lifestyle & Wellness",
		"Business & Entrepreneurship",
		"Technology & Innovation",
		"Fashion & Beauty",
		"Food & Cooking",
		"Travel & Adventure",
		"Fitness & Health",
		"Entertainment & Pop Culture",
		"Education & Learning",
		"DIY & Crafts",
	}
}

// Platforms はコンテンツアイデア生成の配信先選択肢。
func Platforms() []string {
	return []string{"TikTok", "Instagram Reels", "YouTube Shorts", "Instagram Posts", "Twitter/X", "LinkedIn", "All Platforms"}
}

// HelpTopic はヘルプセンターの記事グループ。
type HelpTopic struct {
	Group    string   `json:"group"`
	Articles []string `json:"articles"`
}

// HelpTopics はヘルプセンターの記事一覧を返す。
func HelpTopics() []HelpTopic {
	return []HelpTopic{
		{
			Group: "Getting Started",
			Articles: []string{
				"How to create your first design prompt",
				"Setting up your TikTok slideshow",
				"Understanding viral content strategies",
			},
		},
		{
			Group: "Account & Billing",
			Articles: []string{
				"How to upgrade your plan",
				"Managing your subscription",
				"Billing and payment issues",
			},
		},
	}
}

// FAQ はよくある質問。
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// PricingFAQ は料金ページのFAQを返す。
func PricingFAQ() []FAQ {
	return []FAQ{
		{"Can I change my plan anytime?", "Yes! You can upgrade or downgrade your plan at any time. Changes will be reflected in your next billing cycle."},
		{"What payment methods do you accept?", "We accept all major credit cards, PayPal, and bank transfers for annual subscriptions."},
		{"Is there a free trial?", "Yes! All plans come with a 7-day free trial. No credit card required to start."},
		{"Can I cancel anytime?", "Absolutely! You can cancel your subscription at any time. You'll continue to have access until the end of your billing period."},
	}
}

// SupportFAQ はサポートページのFAQを返す。
func SupportFAQ() []FAQ {
	return []FAQ{
		{"How do I create my first video?", `Start by navigating to the Design Prompts section and clicking "Generate New Prompt". Follow the guided steps to create your first AI-generated video content.`},
		{"What's included in the free plan?", "The free plan includes access to basic design prompts and limited video generation. You can create up to 3 videos per month with watermarks."},
		{"Can I cancel my subscription anytime?", "Yes, you can cancel your subscription at any time from your account settings. You'll continue to have access until the end of your current billing period."},
		{"How do I export my videos?", "Once your video is generated, you can export it in various formats (MP4, MOV, AVI) directly from the video editor. Premium users get access to higher quality exports."},
	}
}

// CurrentPlanLabel はプラン未契約ユーザーの表示名。
const CurrentPlanLabel = "Free User"
