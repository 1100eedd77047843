package tui

import (
	"context"
	"errors"
	"time"

	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/docchat/cli/internal/api"
)

// LoginView handles authentication: login, registration, and forgot
// password, one form rebuilt per mode.
type LoginView struct {
	app    *App
	flex   *tview.Flex
	form   *tview.Form
	status *tview.TextView
	mode   string
}

// NewLoginView creates a new login view
func NewLoginView(app *App) *LoginView {
	lv := &LoginView{
		app:  app,
		mode: "login",
	}

	lv.form = tview.NewForm()
	lv.form.SetBorder(true).SetTitle(" docchat ")

	lv.status = tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true)

	lv.flex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(tview.NewBox(), 0, 1, false).
		AddItem(
			tview.NewFlex().
				AddItem(tview.NewBox(), 0, 1, false).
				AddItem(
					tview.NewFlex().
						SetDirection(tview.FlexRow).
						AddItem(lv.form, 0, 3, true).
						AddItem(lv.status, 3, 0, false),
					0, 2, true,
				).
				AddItem(tview.NewBox(), 0, 1, false),
			0, 3, true,
		).
		AddItem(tview.NewBox(), 0, 1, false)

	lv.rebuild()

	return lv
}

// GetPrimitive returns the tview primitive
func (lv *LoginView) GetPrimitive() tview.Primitive {
	return lv.flex
}

// rebuild recreates the form for the current mode.
func (lv *LoginView) rebuild() {
	lv.form.Clear(true)

	switch lv.mode {
	case "register":
		lv.form.SetTitle(" Create Account ")
		lv.form.
			AddInputField("Email", "", 40, nil, nil).
			AddInputField("Full Name", "", 40, nil, nil).
			AddPasswordField("Password", "", 40, '*', nil).
			AddPasswordField("Confirm Password", "", 40, '*', nil).
			AddButton("Register", lv.submitRegister).
			AddButton("Back to Login", func() { lv.switchMode("login") })

	case "forgot":
		lv.form.SetTitle(" Forgot Password ")
		lv.form.
			AddInputField("Email", "", 40, nil, nil).
			AddButton("Send Reset Email", lv.submitForgot).
			AddButton("Back to Login", func() { lv.switchMode("login") })

	default:
		lv.form.SetTitle(" Sign In ")
		lv.form.
			AddInputField("Email", "", 40, nil, nil).
			AddPasswordField("Password", "", 40, '*', nil).
			AddButton("Login", lv.submitLogin).
			AddButton("Register", func() { lv.switchMode("register") }).
			AddButton("Forgot Password", func() { lv.switchMode("forgot") })
	}
}

func (lv *LoginView) switchMode(mode string) {
	lv.mode = mode
	lv.status.SetText("")
	lv.rebuild()
	lv.app.app.SetFocus(lv.form)
}

func (lv *LoginView) setStatus(text string) {
	lv.status.SetText(text)
}

func (lv *LoginView) fieldValue(label string) string {
	item := lv.form.GetFormItemByLabel(label)
	if item == nil {
		return ""
	}
	if input, ok := item.(*tview.InputField); ok {
		return input.GetText()
	}
	return ""
}

// submitLogin exchanges credentials for a token, then hydrates the user
// profile before entering the app.
func (lv *LoginView) submitLogin() {
	email := lv.fieldValue("Email")
	password := lv.fieldValue("Password")
	if email == "" || password == "" {
		lv.setStatus("[red]Email and password are required.")
		return
	}

	lv.setStatus("[yellow]Signing in...")

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if _, err := lv.app.authClient.Login(ctx, email, password); err != nil {
			lv.app.logger.Warn("login failed", zap.Error(err))
			lv.app.app.QueueUpdateDraw(func() {
				lv.setStatus("[red]" + loginErrorText(err))
			})
			return
		}

		user, err := lv.app.authClient.CurrentUser(ctx)
		if err != nil {
			lv.app.app.QueueUpdateDraw(func() {
				lv.setStatus("[red]" + loginErrorText(err))
			})
			return
		}

		lv.app.app.QueueUpdateDraw(func() {
			lv.setStatus("")
			lv.app.enterApp(user)
		})
	}()
}

// submitRegister creates the account, then logs straight in with the same
// credentials.
func (lv *LoginView) submitRegister() {
	req := &api.RegisterRequest{
		Email:           lv.fieldValue("Email"),
		FullName:        lv.fieldValue("Full Name"),
		Password:        lv.fieldValue("Password"),
		ConfirmPassword: lv.fieldValue("Confirm Password"),
	}
	if req.Email == "" || req.Password == "" {
		lv.setStatus("[red]Email and password are required.")
		return
	}
	if req.Password != req.ConfirmPassword {
		lv.setStatus("[red]Passwords do not match.")
		return
	}

	lv.setStatus("[yellow]Creating account...")

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if _, err := lv.app.authClient.Register(ctx, req); err != nil {
			lv.app.app.QueueUpdateDraw(func() {
				lv.setStatus("[red]" + loginErrorText(err))
			})
			return
		}

		if _, err := lv.app.authClient.Login(ctx, req.Email, req.Password); err != nil {
			lv.app.app.QueueUpdateDraw(func() {
				lv.setStatus("[red]Account created, but login failed: " + loginErrorText(err))
				lv.switchMode("login")
			})
			return
		}

		user, err := lv.app.authClient.CurrentUser(ctx)
		if err != nil {
			lv.app.app.QueueUpdateDraw(func() {
				lv.setStatus("[red]" + loginErrorText(err))
			})
			return
		}

		lv.app.app.QueueUpdateDraw(func() {
			lv.setStatus("")
			lv.app.enterApp(user)
		})
	}()
}

func (lv *LoginView) submitForgot() {
	email := lv.fieldValue("Email")
	if email == "" {
		lv.setStatus("[red]Email is required.")
		return
	}

	lv.setStatus("[yellow]Sending reset email...")

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := lv.app.authClient.ForgotPassword(ctx, email)
		lv.app.app.QueueUpdateDraw(func() {
			if err != nil {
				lv.setStatus("[red]" + loginErrorText(err))
				return
			}
			lv.setStatus("[green]If the address exists, a reset email is on its way.")
			lv.switchMode("login")
		})
	}()
}

// loginErrorText maps an error to a readable message, keeping the server's
// detail string when one came back.
func loginErrorText(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return "Could not reach the auth service: " + err.Error()
}
