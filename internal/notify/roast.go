package notify

import (
	"math/rand/v2"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var failureRoasts = []string{
	"Parabéns. Você não fez nada de novo. {amount} bem investidos.",
	"Eu acreditei em você. Minha carteira ainda acredita.",
	"Mais uma tarefa esquecida. Obrigado pelo café! ☕",
	"Produtividade? Nunca ouvi falar.",
	"Seu eu do futuro está decepcionado.",
	"{amount} a menos na conta. A preguiça cobra caro.",
	"Mais um dia, mais uma multa. Consistência é tudo! 💀",
	"Desculpa, mas não dá pra culpar ninguém dessa vez.",
	"Deadline passou. Seu dinheiro também.",
	"Se procrastinar fosse olimpíada, você era ouro. {amount}.",
	"Tentou? Não. Falhou? Sim. Pagou? Com certeza.",
	"Relaxa, amanhã você tenta de novo. Por {amount}.",
	"A intenção era boa. A execução, nem tanto. {amount}.",
	"Você escolheu Netflix ao invés de fazer isso? {amount}.",
	"Aquele cochilo saiu caro: {amount}.",
}

var streakBreakRoasts = []string{
	"Sequência de {streak} dias quebrada. Voltamos à estaca zero.",
	"Era uma sequência tão bonita... {streak} dias. RIP.",
	"Você destruiu {streak} dias de progresso. Parabéns.",
	"De herói a zero em um dia. Adeus, sequência de {streak}.",
	"{streak} dias jogados no lixo. A preguiça venceu.",
}

var successMessages = []string{
	"Tarefa concluída! Seu eu do futuro agradece.",
	"Mandou bem! Dinheiro salvo, orgulho intacto.",
	"É isso aí! Continuando produtivo.",
	"Missão cumprida. Nada de multa hoje! 🎉",
	"Você venceu a procrastinação. Por hoje.",
}

var streakMilestones = map[int]string{
	3:  "3 dias seguidos! Está criando um hábito.",
	7:  "Uma semana completa! 🔥 Você é imparável!",
	14: "2 semanas de consistência! Lendário!",
	30: "1 mês! Você é uma máquina de produtividade! 🏆",
}

var brl = message.NewPrinter(language.BrazilianPortuguese)

// FormatBRL renders minor units as reais, e.g. 500 -> "R$5,00".
func FormatBRL(amount int64) string {
	return brl.Sprintf("R$%.2f", float64(amount)/100)
}

// FailureRoast fills the i-th failure template (modulo the catalogue size) with amount.
func FailureRoast(i int, amount int64) string {
	return strings.ReplaceAll(pick(failureRoasts, i), "{amount}", FormatBRL(amount))
}

// StreakBreakRoast fills the i-th streak-break template with the lost streak.
func StreakBreakRoast(i int, streak int) string {
	return strings.ReplaceAll(pick(streakBreakRoasts, i), "{streak}", strconv.Itoa(streak))
}

// SuccessMessage returns the i-th completion message.
func SuccessMessage(i int) string {
	return pick(successMessages, i)
}

// Milestone returns the celebration for a streak length, if there is one.
func Milestone(streak int) (string, bool) {
	msg, ok := streakMilestones[streak]
	return msg, ok
}

func pick(list []string, i int) string {
	if i < 0 {
		i = -i
	}
	return list[i%len(list)]
}

// Picker chooses an index in [0, n).
type Picker interface {
	IntN(n int) int
}

type globalPicker struct{}

func (globalPicker) IntN(n int) int { return rand.IntN(n) }

// Roaster picks random templates from an injected source.
type Roaster struct {
	rnd Picker
}

// NewRoaster returns a Roaster; a nil picker uses the process-wide random source.
func NewRoaster(rnd Picker) *Roaster {
	if rnd == nil {
		rnd = globalPicker{}
	}
	return &Roaster{rnd: rnd}
}

func (r *Roaster) Failure(amount int64) string {
	return FailureRoast(r.rnd.IntN(len(failureRoasts)), amount)
}

func (r *Roaster) StreakBreak(streak int) string {
	return StreakBreakRoast(r.rnd.IntN(len(streakBreakRoasts)), streak)
}

func (r *Roaster) Success() string {
	return SuccessMessage(r.rnd.IntN(len(successMessages)))
}
