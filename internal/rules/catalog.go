package rules

// Activity types referenced by engine code paths. The catalog defines
// more types than these; only the ones the engine triggers itself need
// named constants.
const (
	ActivityDailyCheckin     = "daily_checkin"
	ActivityReferralSignup   = "referral_signup"
	ActivityReferralComplete = "referral_complete"
	ActivityFirstTransaction = "first_transaction"
	ActivityAdminBulkUpload  = "admin_bulk_upload"
)

// DefaultCatalog is the built-in activity configuration, used when no
// rules file is configured.
func DefaultCatalog() []ActivityRule {
	return []ActivityRule{
		// Onboarding
		{
			Type:           "wallet_connect",
			Name:           "Connect Wallet",
			Description:    "Connect your first wallet to the platform",
			Category:       CategoryOnboarding,
			BasePoints:     50,
			MaxTotalPoints: 50,
			IsActive:       true,
		},
		{
			Type:           "profile_complete",
			Name:           "Complete Profile",
			Description:    "Fill out your complete user profile",
			Category:       CategoryOnboarding,
			BasePoints:     100,
			MaxTotalPoints: 100,
			IsActive:       true,
		},
		{
			Type:           "tutorial_complete",
			Name:           "Complete Tutorial",
			Description:    "Finish the platform tutorial",
			Category:       CategoryOnboarding,
			BasePoints:     75,
			MaxTotalPoints: 75,
			IsActive:       true,
		},

		// Daily engagement
		{
			Type:           ActivityDailyCheckin,
			Name:           "Daily Check-in",
			Description:    "Check in daily to earn points",
			Category:       CategoryEngagement,
			BasePoints:     10,
			MaxDailyPoints: 10,
			Multipliers: []MultiplierCondition{
				{Kind: MultiplierStreak, Threshold: 7, Factor: 1.5, Description: "1.5x points for 7+ day streak"},
				{Kind: MultiplierStreak, Threshold: 30, Factor: 2.0, Description: "2x points for 30+ day streak"},
			},
			IsActive:       true,
			AdvancesStreak: true,
		},

		// Trading
		{
			Type:           ActivityFirstTransaction,
			Name:           "First Transaction",
			Description:    "Complete your first transaction",
			Category:       CategoryTrading,
			BasePoints:     200,
			MaxTotalPoints: 200,
			IsActive:       true,
		},
		{
			Type:           "transaction_complete",
			Name:           "Transaction Complete",
			Description:    "Complete a transaction",
			Category:       CategoryTrading,
			BasePoints:     25,
			MaxDailyPoints: 500,
			IsActive:       true,
		},
		{
			Type:        "volume_milestone",
			Name:        "Volume Milestone",
			Description: "Reach trading volume milestones",
			Category:    CategoryTrading,
			BasePoints:  500,
			Multipliers: []MultiplierCondition{
				{Kind: MultiplierVolume, Threshold: 1000, Factor: 1.0, Description: "500 points for $1K volume"},
				{Kind: MultiplierVolume, Threshold: 10000, Factor: 2.0, Description: "1000 points for $10K volume"},
				{Kind: MultiplierVolume, Threshold: 100000, Factor: 5.0, Description: "2500 points for $100K volume"},
			},
			IsActive: true,
		},
		{
			Type:           "nft_mint",
			Name:           "NFT Mint",
			Description:    "Mint an NFT on the platform",
			Category:       CategoryTrading,
			BasePoints:     150,
			MaxDailyPoints: 750,
			IsActive:       true,
		},
		{
			Type:           "nft_trade",
			Name:           "NFT Trade",
			Description:    "Buy or sell an NFT",
			Category:       CategoryTrading,
			BasePoints:     100,
			MaxDailyPoints: 1000,
			IsActive:       true,
		},

		// Social and community
		{
			Type:           "social_share",
			Name:           "Social Share",
			Description:    "Share content on social media",
			Category:       CategorySocial,
			BasePoints:     20,
			MaxDailyPoints: 100,
			CooldownHours:  1,
			IsActive:       true,
		},
		{
			Type:           "community_post",
			Name:           "Community Post",
			Description:    "Create a post in the community",
			Category:       CategoryCommunity,
			BasePoints:     30,
			MaxDailyPoints: 150,
			IsActive:       true,
		},
		{
			Type:           "community_like",
			Name:           "Like Post",
			Description:    "Like a community post",
			Category:       CategoryCommunity,
			BasePoints:     5,
			MaxDailyPoints: 50,
			IsActive:       true,
		},
		{
			Type:           "community_comment",
			Name:           "Comment on Post",
			Description:    "Comment on a community post",
			Category:       CategoryCommunity,
			BasePoints:     15,
			MaxDailyPoints: 150,
			IsActive:       true,
		},

		// Referrals
		{
			Type:        ActivityReferralSignup,
			Name:        "Referral Signup",
			Description: "Someone signs up using your referral code",
			Category:    CategoryReferral,
			BasePoints:  100,
			IsActive:    true,
		},
		{
			Type:        ActivityReferralComplete,
			Name:        "Referral Completes First Transaction",
			Description: "Your referral completes their first transaction",
			Category:    CategoryReferral,
			BasePoints:  250,
			IsActive:    true,
		},

		// Achievements
		{
			Type:        "achievement_unlock",
			Name:        "Achievement Unlocked",
			Description: "Unlock a platform achievement",
			Category:    CategoryAchievement,
			BasePoints:  100,
			IsActive:    true,
		},
		{
			Type:        "level_up",
			Name:        "Level Up",
			Description: "Advance to the next level",
			Category:    CategoryAchievement,
			BasePoints:  200,
			Multipliers: []MultiplierCondition{
				{Kind: MultiplierLevel, Threshold: 10, Factor: 1.5, Description: "1.5x points for level 10+"},
				{Kind: MultiplierLevel, Threshold: 25, Factor: 2.0, Description: "2x points for level 25+"},
			},
			IsActive: true,
		},
		{
			Type:        "streak_milestone",
			Name:        "Streak Milestone",
			Description: "Reach consecutive day milestones",
			Category:    CategoryAchievement,
			BasePoints:  150,
			Multipliers: []MultiplierCondition{
				{Kind: MultiplierStreak, Threshold: 7, Factor: 1.0, Description: "150 points for 7-day streak"},
				{Kind: MultiplierStreak, Threshold: 30, Factor: 3.0, Description: "450 points for 30-day streak"},
				{Kind: MultiplierStreak, Threshold: 100, Factor: 10.0, Description: "1500 points for 100-day streak"},
			},
			IsActive: true,
		},

		// Special
		{
			Type:           "bug_report",
			Name:           "Bug Report",
			Description:    "Report a valid bug",
			Category:       CategorySpecial,
			BasePoints:     150,
			MaxDailyPoints: 500,
			IsActive:       true,
		},
		{
			Type:        "content_creation",
			Name:        "Content Creation",
			Description: "Create educational or promotional content",
			Category:    CategorySpecial,
			BasePoints:  500,
			Requirements: []Requirement{
				{Kind: RequirementMinLevel, Value: 5, Description: "Must be level 5 or higher"},
			},
			IsActive: true,
		},
		{
			Type:        "loyalty_bonus",
			Name:        "Loyalty Bonus",
			Description: "Monthly bonus for active users",
			Category:    CategorySpecial,
			BasePoints:  500,
			Requirements: []Requirement{
				{Kind: RequirementAccountAgeDays, Value: 30, Description: "Account must be 30+ days old"},
				{Kind: RequirementMinTransactions, Value: 10, Description: "Must have completed 10+ transactions"},
			},
			IsActive: true,
		},
		{
			Type:        "seasonal_event",
			Name:        "Seasonal Event",
			Description: "Participate in seasonal events",
			Category:    CategorySpecial,
			BasePoints:  300,
			IsActive:    false, // activated during events
		},

		// Administrative
		{
			Type:        ActivityAdminBulkUpload,
			Name:        "Admin Bulk Upload",
			Description: "Points granted through an administrative upload",
			Category:    CategoryAdmin,
			BasePoints:  0,
			IsActive:    true,
		},
	}
}
