package bot

// inputClass selects the validation policy for one flow step.
type inputClass int

const (
	// inputName strips to the allow-list; empty result is rejected
	inputName inputClass = iota
	// inputLink requires the https://t.me/ prefix
	inputLink
	// inputFree accepts anything; "-" selects the default / keeps the
	// current value in edit flows
	inputFree
)

type flowStep struct {
	field  string
	class  inputClass
	prompt string
}

// flowSteps declares each flow's ordered steps. The prompt at index i asks
// for field i; the first prompt is sent when the flow starts.
var flowSteps = map[FlowKind][]flowStep{
	FlowAddChannel: {
		{field: "name", class: inputName, prompt: "📺 Додавання каналу\n\nВведіть назву каналу (без @):"},
		{field: "link", class: inputLink, prompt: "Тепер введіть посилання на канал (https://t.me/...):"},
	},
	FlowAddGroup: {
		{field: "name", class: inputName, prompt: "👥 Додавання групи\n\nВведіть назву групи (без @):"},
		{field: "link", class: inputLink, prompt: "Тепер введіть посилання на групу (https://t.me/...):"},
	},
	FlowCreateBroadcast: {
		{field: "name", class: inputName, prompt: "📤 Новий шаблон розсилки\n\nВведіть назву шаблону:"},
		{field: "title", class: inputFree, prompt: "Введіть заголовок (або «-», щоб пропустити):"},
		{field: "message", class: inputFree, prompt: "Введіть текст розсилки:"},
		{field: "cities", class: inputFree, prompt: "Введіть міста через кому (або «-» для всіх міст):"},
	},
	FlowEditBroadcast: {
		{field: "name", class: inputName, prompt: "✏️ Редагування шаблону\n\nВведіть нову назву шаблону:"},
		{field: "title", class: inputFree, prompt: "Введіть новий заголовок:"},
		{field: "message", class: inputFree, prompt: "Введіть новий текст розсилки:"},
		{field: "cities", class: inputFree, prompt: "Введіть міста через кому:"},
	},
	FlowCreateLocation: {
		{field: "name", class: inputName, prompt: "📍 Нова локація\n\nВведіть назву чату для постингу:"},
		{field: "link", class: inputLink, prompt: "Введіть посилання на чат (https://t.me/...):"},
		{field: "city", class: inputFree, prompt: "Введіть місто локації (ключ, напр. київ):"},
	},
	FlowEditLocation: {
		{field: "name", class: inputName, prompt: "✏️ Редагування локації\n\nВведіть нову назву чату:"},
		{field: "link", class: inputLink, prompt: "Введіть нове посилання (https://t.me/...):"},
		{field: "city", class: inputFree, prompt: "Введіть нове місто локації:"},
	},
	FlowCreateComment: {
		{field: "name", class: inputName, prompt: "💬 Новий шаблон коментаря\n\nВведіть назву шаблону:"},
		{field: "body", class: inputFree, prompt: "Введіть текст коментаря:"},
	},
	FlowEditComment: {
		{field: "name", class: inputName, prompt: "✏️ Редагування коментаря\n\nВведіть нову назву шаблону:"},
		{field: "body", class: inputFree, prompt: "Введіть новий текст коментаря:"},
	},
}
