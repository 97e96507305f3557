package googlechat

// Message is the Google Chat cardsV2 message body accepted by incoming webhooks.
// cf. https://developers.google.com/workspace/chat/api/reference/rest/v1/cards
type Message struct {
	CardsV2 []CardWithID `json:"cardsV2"`
}

type CardWithID struct {
	CardID string `json:"cardId"`
	Card   Card   `json:"card"`
}

type Card struct {
	Header   Header    `json:"header"`
	Sections []Section `json:"sections"`
}

type Header struct {
	Title     string `json:"title"`
	Subtitle  string `json:"subtitle,omitempty"`
	ImageURL  string `json:"imageUrl,omitempty"`
	ImageType string `json:"imageType,omitempty"`
}

type Section struct {
	Widgets []Widget `json:"widgets"`
}

// Widget holds exactly one of its fields
type Widget struct {
	DecoratedText *DecoratedText `json:"decoratedText,omitempty"`
	TextParagraph *TextParagraph `json:"textParagraph,omitempty"`
	Divider       *Divider       `json:"divider,omitempty"`
	ButtonList    *ButtonList    `json:"buttonList,omitempty"`
}

type DecoratedText struct {
	StartIcon   *Icon  `json:"startIcon,omitempty"`
	TopLabel    string `json:"topLabel,omitempty"`
	Text        string `json:"text"`
	BottomLabel string `json:"bottomLabel,omitempty"`
}

type Icon struct {
	KnownIcon string `json:"knownIcon"`
}

type TextParagraph struct {
	Text string `json:"text"`
}

type Divider struct{}

type ButtonList struct {
	Buttons []Button `json:"buttons"`
}

type Button struct {
	Text    string  `json:"text"`
	OnClick OnClick `json:"onClick"`
}

type OnClick struct {
	OpenLink OpenLink `json:"openLink"`
}

type OpenLink struct {
	URL string `json:"url"`
}
