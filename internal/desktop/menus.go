package desktop

import (
	goruntime "runtime"

	"github.com/wailsapp/wails/v2/pkg/menu"
	"github.com/wailsapp/wails/v2/pkg/menu/keys"
)

// BuildMenu assembles the window menu bar, localized with the startup
// language.
func BuildMenu(app *App) *menu.Menu {
	t := app.translator
	root := menu.NewMenu()

	// macOS requires the application menu first; its stock Edit menu
	// carries the system-localized clipboard roles.
	if goruntime.GOOS == "darwin" {
		root.Append(menu.AppMenu())
	}

	file := root.AddSubmenu(t.T("MenuFile", "File"))
	file.AddText(t.T("MenuFileNewWindow", "New Window"), keys.CmdOrCtrl("n"), func(_ *menu.CallbackData) {
		if _, err := app.NewWindow(); err != nil {
			app.log.Warn().Err(err).Msg("Failed to open new window")
		}
	})
	file.AddText(t.T("MenuFileCloseWindow", "Close Window"), keys.CmdOrCtrl("w"), func(_ *menu.CallbackData) {
		app.CloseWindow()
	})
	file.AddSeparator()
	file.AddText(t.T("MenuFileOpenHomeFolder", "Open Kolibri Home Folder"), nil, func(_ *menu.CallbackData) {
		app.OpenHomeFolder()
	})

	if goruntime.GOOS == "darwin" {
		root.Append(menu.EditMenu())
	} else {
		edit := root.AddSubmenu(t.T("MenuEdit", "Edit"))
		edit.AddText(t.T("MenuEditUndo", "Undo"), keys.CmdOrCtrl("z"), app.editHandler("undo"))
		edit.AddText(t.T("MenuEditRedo", "Redo"), keys.Combo("z", keys.CmdOrCtrlKey, keys.ShiftKey), app.editHandler("redo"))
		edit.AddSeparator()
		edit.AddText(t.T("MenuEditCut", "Cut"), keys.CmdOrCtrl("x"), app.editHandler("cut"))
		edit.AddText(t.T("MenuEditCopy", "Copy"), keys.CmdOrCtrl("c"), app.editHandler("copy"))
		edit.AddText(t.T("MenuEditPaste", "Paste"), keys.CmdOrCtrl("v"), app.editHandler("paste"))
		edit.AddText(t.T("MenuEditSelectAll", "Select All"), keys.CmdOrCtrl("a"), app.editHandler("selectAll"))
	}

	view := root.AddSubmenu(t.T("MenuView", "View"))
	view.AddText(t.T("MenuViewReload", "Reload"), nil, func(_ *menu.CallbackData) {
		app.Reload()
	})
	view.AddText(t.T("MenuViewActualSize", "Actual Size"), keys.CmdOrCtrl("0"), func(_ *menu.CallbackData) {
		app.ActualSize()
	})
	view.AddText(t.T("MenuViewZoomIn", "Zoom In"), keys.CmdOrCtrl("+"), func(_ *menu.CallbackData) {
		app.ZoomIn()
	})
	view.AddText(t.T("MenuViewZoomOut", "Zoom Out"), keys.CmdOrCtrl("-"), func(_ *menu.CallbackData) {
		app.ZoomOut()
	})
	view.AddSeparator()
	view.AddText(t.T("MenuViewOpenInBrowser", "Open in Browser"), nil, func(_ *menu.CallbackData) {
		app.OpenInBrowser()
	})

	history := root.AddSubmenu(t.T("MenuHistory", "History"))
	history.AddText(t.T("MenuHistoryBack", "Back"), keys.CmdOrCtrl("["), func(_ *menu.CallbackData) {
		app.GoBack()
	})
	history.AddText(t.T("MenuHistoryForward", "Forward"), keys.CmdOrCtrl("]"), func(_ *menu.CallbackData) {
		app.GoForward()
	})

	help := root.AddSubmenu(t.T("MenuHelp", "Help"))
	help.AddText(t.T("MenuHelpDocumentation", "Documentation"), nil, func(_ *menu.CallbackData) {
		app.OpenDocumentation()
	})
	help.AddText(t.T("MenuHelpForums", "Community Forums"), nil, func(_ *menu.CallbackData) {
		app.OpenForums()
	})

	return root
}

func (a *App) editHandler(command string) func(*menu.CallbackData) {
	return func(_ *menu.CallbackData) { a.EditCommand(command) }
}
