package reference

// TutorConcept is one teachable concept for the tutor personas.
type TutorConcept struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Summary        string `json:"summary"`
	SampleQuestion string `json:"sample_question"`
}

// DefaultTutorConcepts is used when the tutor content file is missing.
func DefaultTutorConcepts() []TutorConcept {
	return []TutorConcept{
		{
			ID:             "variables",
			Title:          "Variables",
			Summary:        "Variables store values so you can reuse them later.",
			SampleQuestion: "What is a variable and why is it useful?",
		},
		{
			ID:             "loops",
			Title:          "Loops",
			Summary:        "Loops let you repeat an action multiple times.",
			SampleQuestion: "Explain the difference between a for loop and a while loop.",
		},
	}
}

// FAQEntry is a single question/answer pair.
type FAQEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// CompanyFAQ is the knowledge the SDR persona answers from.
type CompanyFAQ struct {
	CompanyName string     `json:"company_name"`
	Tagline     string     `json:"tagline"`
	Description string     `json:"description"`
	FAQs        []FAQEntry `json:"faqs"`
	KeyFeatures []string   `json:"key_features"`
}

// DefaultCompanyFAQ is used when no FAQ file is configured.
func DefaultCompanyFAQ() CompanyFAQ {
	return CompanyFAQ{
		CompanyName: "Zerodha",
		Tagline:     "India's largest stock broker",
		Description: "Zerodha is a technology-driven discount broker offering stock trading, mutual funds, bonds, and more with zero brokerage on equity delivery and direct mutual funds.",
		FAQs: []FAQEntry{
			{Question: "What does Zerodha do?", Answer: "Zerodha is India's largest stock broker that provides a platform for trading stocks, mutual funds, bonds, commodities, and currencies. We focus on technology and transparency, offering trading with minimal costs."},
			{Question: "What are the pricing or charges?", Answer: "We charge zero brokerage on equity delivery trades and direct mutual funds. For intraday and F&O trading, it's flat ₹20 per executed order or 0.03% whichever is lower. Account opening is free, and AMC is ₹300 per year."},
			{Question: "Is there a free tier or trial?", Answer: "Account opening is completely free. You can open a Demat and trading account at zero cost. The annual maintenance charge of ₹300 is charged only from the second year onwards."},
			{Question: "Who is Zerodha for?", Answer: "Zerodha is for anyone looking to invest or trade in Indian stock markets - from beginners starting their investment journey to active traders and seasoned investors. We serve over 1.5 crore clients across India."},
			{Question: "What platforms do you offer?", Answer: "We offer Kite, our flagship web and mobile trading platform, Coin for mutual funds, and Console for portfolio analytics. All platforms are designed to be fast, intuitive, and feature-rich."},
			{Question: "How do I get started?", Answer: "You can open an account online in under 10 minutes. You'll need your PAN card, Aadhaar, bank details, and a signature. The entire process is paperless and can be completed from your phone."},
			{Question: "What support do you provide?", Answer: "We offer 24/7 customer support through phone, email, and live chat. We also have extensive educational resources at Zerodha Varsity, which is completely free and covers everything from basics to advanced trading strategies."},
			{Question: "Is Zerodha safe and regulated?", Answer: "Yes, Zerodha is registered with SEBI and is a member of NSE, BSE, and MCX. We follow all regulatory requirements and client funds are held in separate accounts. We're also the first Indian broker to be profitable and debt-free."},
		},
		KeyFeatures: []string{
			"Zero brokerage on equity delivery",
			"Flat ₹20 per trade for intraday and F&O",
			"Free account opening",
			"Advanced trading platforms (Kite, Coin, Console)",
			"Educational resources through Zerodha Varsity",
			"No hidden charges",
		},
	}
}

// Data bundles all immutable reference data loaded at startup.
type Data struct {
	Catalog       Catalog
	TutorConcepts []TutorConcept
	FAQ           CompanyFAQ
}

// Defaults returns the built-in reference data.
func Defaults() Data {
	return Data{
		Catalog:       DefaultCatalog(),
		TutorConcepts: DefaultTutorConcepts(),
		FAQ:           DefaultCompanyFAQ(),
	}
}
