package apitest

import "encoding/json"

type errorJSON struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type userJSON struct {
	ID    int    `json:"id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type memberJSON struct {
	User     userJSON `json:"user"`
	Accepted bool     `json:"accepted"`
}

type groupJSON struct {
	ID          int          `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Members     []memberJSON `json:"members"`
}

type splitJSON struct {
	ID    int         `json:"id"`
	User  userJSON    `json:"user"`
	Share json.Number `json:"share"`
}

type expenseJSON struct {
	ID          int         `json:"id"`
	GroupID     int         `json:"groupId"`
	Amount      json.Number `json:"amount"`
	Description string      `json:"description"`
	Date        string      `json:"date"`
	Payer       userJSON    `json:"payer"`
	Splits      []splitJSON `json:"splits"`
}

type settlementJSON struct {
	ID      int         `json:"id"`
	GroupID int         `json:"groupId"`
	Payer   userJSON    `json:"payer"`
	Payee   userJSON    `json:"payee"`
	Amount  json.Number `json:"amount"`
	Date    string      `json:"date"`
}

type groupReportJSON struct {
	GroupID     int              `json:"groupId"`
	GroupName   string           `json:"groupName"`
	Expenses    []expenseJSON    `json:"expenses"`
	Settlements []settlementJSON `json:"settlements"`
}

type userReportJSON struct {
	TotalExpenses json.Number       `json:"totalExpenses"`
	TotalPaid     json.Number       `json:"totalPaid"`
	TotalOwed     json.Number       `json:"totalOwed"`
	Balance       json.Number       `json:"balance"`
	GroupReports  []groupReportJSON `json:"groupReports"`
}

type credentials struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type groupRequest struct {
	GroupID     json.Number `json:"groupId"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Email       string      `json:"email"`
}

type splitRequest struct {
	UserID json.Number `json:"userId"`
	Share  json.Number `json:"share"`
}

type expenseRequest struct {
	Amount      json.Number    `json:"amount"`
	Description string         `json:"description"`
	Date        string         `json:"date"`
	PayerID     json.Number    `json:"payerId"`
	GroupID     json.Number    `json:"groupId"`
	Splits      []splitRequest `json:"splits"`
}

type settlementRequest struct {
	PayerID json.Number `json:"payerId"`
	PayeeID json.Number `json:"payeeId"`
	Amount  json.Number `json:"amount"`
	Date    string      `json:"date"`
	GroupID json.Number `json:"groupId"`
}
