package web

import (
	"html/template"
	"time"

	"github.com/amonks/taskboard/board"
	"github.com/amonks/taskboard/task"
)

func newTemplates() *template.Template {
	funcs := template.FuncMap{
		"formatTime":  formatTime,
		"statusLabel": func(status task.Status) string { return status.Label() },
		"laneClass":   laneClass,
	}
	return template.Must(template.New("pages").Funcs(funcs).Parse(pageTemplate))
}

type authPageData struct {
	Username string
	Email    string
	Error    string
}

type laneView struct {
	Status task.Status
	Label  string
	Tasks  []task.Task
}

type dialogView struct {
	Open     bool
	Editing  bool
	Action   string
	Title    string
	Body     string
	Status   task.Status
	Heading  string
	Submit   string
	Statuses []task.Status
}

type boardPageData struct {
	DisplayName string
	Total       int
	Lanes       []laneView
	Dialog      dialogView
}

func newBoardPageData(b *board.Board) boardPageData {
	lanes := b.Lanes()
	data := boardPageData{
		DisplayName: b.DisplayName(),
		Total:       lanes.Total(),
	}
	for _, status := range task.ValidStatuses() {
		data.Lanes = append(data.Lanes, laneView{
			Status: status,
			Label:  status.Label(),
			Tasks:  lanes.Lane(status),
		})
	}

	dialog := b.Dialog()
	view := dialogView{Open: dialog.Open(), Statuses: task.ValidStatuses()}
	switch {
	case dialog.Mode == board.DialogEdit && dialog.Current != nil:
		view.Editing = true
		view.Action = "/board/tasks/update?id=" + formatID(dialog.Current.ID)
		view.Title = dialog.Current.Title
		view.Body = dialog.Current.Description
		view.Status = dialog.Current.Status
		view.Heading = "Edit Task"
		view.Submit = "Save"
	case dialog.Mode == board.DialogCreate:
		view.Action = "/board/tasks/create"
		view.Title = dialog.Draft.Title
		view.Body = dialog.Draft.Description
		view.Status = dialog.Draft.Status
		view.Heading = "Create New Task"
		view.Submit = "Create"
	}
	data.Dialog = view
	return data
}

func laneClass(status task.Status) string {
	switch status {
	case task.StatusInProgress:
		return "lane-in-progress"
	case task.StatusDone:
		return "lane-done"
	default:
		return "lane-todo"
	}
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.Local().Format("2006-01-02 15:04")
}

const pageTemplate = `{{define "head"}}<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Task Board</title>
  <style>
    :root {
      color-scheme: light;
      --bg: #f4f5f7;
      --panel: #ffffff;
      --ink: #172b4d;
      --muted: #5e6c84;
      --accent: #0052cc;
      --danger: #de350b;
      --valid: #e3fcef;
      --invalid: #ffebe6;
    }
    * { box-sizing: border-box; }
    body {
      margin: 0;
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif;
      background: var(--bg);
      color: var(--ink);
    }
    body.drag-invalid { background: var(--invalid); }
    header {
      display: flex;
      align-items: center;
      justify-content: space-between;
      padding: 12px 24px;
      background: var(--panel);
      border-bottom: 1px solid #dfe1e6;
    }
    header h1 { font-size: 20px; margin: 0; }
    .auth {
      max-width: 360px;
      margin: 80px auto;
      padding: 24px;
      background: var(--panel);
      border-radius: 8px;
      box-shadow: 0 1px 3px rgba(9, 30, 66, 0.25);
    }
    label { display: block; font-size: 13px; color: var(--muted); margin-top: 12px; }
    input, textarea, select {
      width: 100%;
      padding: 8px;
      margin-top: 4px;
      border: 1px solid #dfe1e6;
      border-radius: 4px;
      font: inherit;
    }
    textarea { min-height: 96px; }
    button, .button {
      display: inline-block;
      padding: 8px 14px;
      border: 0;
      border-radius: 4px;
      background: var(--accent);
      color: #fff;
      font: inherit;
      cursor: pointer;
      text-decoration: none;
    }
    button.secondary { background: #dfe1e6; color: var(--ink); }
    button.danger { background: var(--danger); }
    .error { color: var(--danger); margin-top: 12px; }
    .lanes {
      display: grid;
      grid-template-columns: repeat(3, 1fr);
      gap: 16px;
      padding: 24px;
    }
    .lane {
      min-height: 240px;
      padding: 12px;
      border-radius: 8px;
      background: #ebecf0;
    }
    .lane.drag-valid { background: var(--valid); }
    .lane h2 { font-size: 13px; margin: 0 0 12px; color: var(--muted); }
    .card {
      padding: 10px;
      margin-bottom: 8px;
      background: var(--panel);
      border-radius: 4px;
      box-shadow: 0 1px 1px rgba(9, 30, 66, 0.25);
      cursor: grab;
    }
    .card h3 { font-size: 15px; margin: 0 0 6px; }
    .card p { font-size: 13px; margin: 0 0 6px; white-space: pre-wrap; }
    .card .meta { font-size: 11px; color: var(--muted); }
    .card .actions { display: flex; gap: 6px; margin-top: 8px; }
    .card .actions form { margin: 0; }
    .card .actions button, .card .actions a { padding: 4px 8px; font-size: 12px; }
    .backdrop {
      position: fixed;
      inset: 0;
      display: flex;
      align-items: center;
      justify-content: center;
      background: rgba(9, 30, 66, 0.54);
    }
    .backdrop > form.close { position: absolute; inset: 0; margin: 0; }
    .backdrop > form.close button { width: 100%; height: 100%; opacity: 0; cursor: default; }
    .dialog {
      position: relative;
      width: 420px;
      padding: 24px;
      background: var(--panel);
      border-radius: 8px;
    }
    .dialog .buttons { display: flex; justify-content: flex-end; gap: 8px; margin-top: 16px; }
  </style>
</head>
{{end}}

{{define "login"}}{{template "head" .}}
<body>
  <main class="auth">
    <h1>Sign in</h1>
    <form method="post" action="/login">
      <label for="email">Email</label>
      <input id="email" name="email" type="email" value="{{.Email}}" autofocus>
      <label for="password">Password</label>
      <input id="password" name="password" type="password">
      {{if .Error}}<div class="error">{{.Error}}</div>{{end}}
      <p><button type="submit">Login</button></p>
    </form>
    <p><a href="/register">Create an account</a></p>
  </main>
</body>
</html>
{{end}}

{{define "register"}}{{template "head" .}}
<body>
  <main class="auth">
    <h1>Create an account</h1>
    <form method="post" action="/register">
      <label for="username">Username</label>
      <input id="username" name="username" value="{{.Username}}" autofocus>
      <label for="email">Email</label>
      <input id="email" name="email" type="email" value="{{.Email}}">
      <label for="password">Password</label>
      <input id="password" name="password" type="password">
      {{if .Error}}<div class="error">{{.Error}}</div>{{end}}
      <p><button type="submit">Register</button></p>
    </form>
    <p><a href="/login">Already have an account?</a></p>
  </main>
</body>
</html>
{{end}}

{{define "board"}}{{template "head" .}}
<body>
  <header>
    <h1>Task Board</h1>
    <div>
      <span class="user">{{.DisplayName}}</span>
      <a class="button" href="/board?dialog=create">Add Task</a>
      <form method="post" action="/logout" style="display:inline">
        <button type="submit" class="secondary">Logout</button>
      </form>
    </div>
  </header>
  <main class="lanes">
    {{range .Lanes}}
    <section class="lane {{laneClass .Status}}" data-lane="{{.Status}}">
      <h2>{{.Label}} ({{len .Tasks}})</h2>
      {{range $index, $task := .Tasks}}
      <article class="card" draggable="true" data-id="{{$task.ID}}" data-lane="{{$task.Status}}" data-index="{{$index}}">
        <h3>{{$task.Title}}</h3>
        {{if $task.Description}}<p>{{$task.Description}}</p>{{end}}
        <div class="meta">Created {{formatTime $task.CreatedAt}}</div>
        <div class="actions">
          <a class="button" href="/board?dialog=edit&id={{$task.ID}}">Edit</a>
          <form method="post" action="/board/tasks/delete?id={{$task.ID}}">
            <button type="submit" class="danger">Delete</button>
          </form>
        </div>
      </article>
      {{end}}
    </section>
    {{end}}
  </main>

  {{if .Dialog.Open}}
  <div class="backdrop">
    <form class="close" method="post" action="/board/dialog/close"><button type="submit" aria-label="Close"></button></form>
    <div class="dialog" role="dialog">
      <h2>{{.Dialog.Heading}}</h2>
      <form method="post" action="{{.Dialog.Action}}">
        <label for="title">Title</label>
        <input id="title" name="title" value="{{.Dialog.Title}}" maxlength="100" autofocus>
        <label for="description">Description</label>
        <textarea id="description" name="description">{{.Dialog.Body}}</textarea>
        <label for="status">Status</label>
        <select id="status" name="status">
          {{$current := .Dialog.Status}}
          {{range .Dialog.Statuses}}
          <option value="{{.}}"{{if eq . $current}} selected{{end}}>{{statusLabel .}}</option>
          {{end}}
        </select>
        <div class="buttons">
          <button type="submit" class="secondary" formaction="/board/dialog/close">Cancel</button>
          <button type="submit">{{.Dialog.Submit}}</button>
        </div>
      </form>
    </div>
  </div>
  {{end}}

  <script>
  (function () {
    var dragged = null;

    function clearHighlight() {
      document.body.classList.remove("drag-invalid");
      document.querySelectorAll(".lane.drag-valid").forEach(function (lane) {
        lane.classList.remove("drag-valid");
      });
    }

    function dropIndex(lane, y) {
      var cards = Array.prototype.filter.call(lane.querySelectorAll(".card"), function (card) {
        return card !== dragged;
      });
      for (var i = 0; i < cards.length; i++) {
        var box = cards[i].getBoundingClientRect();
        if (y < box.top + box.height / 2) {
          return i;
        }
      }
      return cards.length;
    }

    document.querySelectorAll(".card").forEach(function (card) {
      card.addEventListener("dragstart", function (event) {
        dragged = card;
        event.dataTransfer.effectAllowed = "move";
        event.dataTransfer.setData("text/plain", card.dataset.id);
      });
      card.addEventListener("dragend", function () {
        dragged = null;
        clearHighlight();
      });
    });

    document.addEventListener("dragover", function (event) {
      if (!dragged) {
        return;
      }
      event.preventDefault();
      var lane = event.target.closest ? event.target.closest(".lane") : null;
      clearHighlight();
      if (lane) {
        lane.classList.add("drag-valid");
      } else {
        document.body.classList.add("drag-invalid");
      }
    });

    document.addEventListener("drop", function (event) {
      if (!dragged) {
        return;
      }
      event.preventDefault();
      var card = dragged;
      var lane = event.target.closest ? event.target.closest(".lane") : null;
      var destination = null;
      var index = 0;
      if (lane) {
        index = dropIndex(lane, event.clientY);
        destination = { lane: lane.dataset.lane, index: index };
      }
      clearHighlight();
      fetch("/board/tasks/move", {
        method: "POST",
        headers: { "Content-Type": "application/json" },
        body: JSON.stringify({
          task_id: Number(card.dataset.id),
          source: { lane: card.dataset.lane, index: Number(card.dataset.index) },
          destination: destination
        })
      }).then(function (response) {
        return response.json();
      }).then(function (result) {
        if (result.reload) {
          window.location.reload();
          return;
        }
        if (result.outcome === "reordered" && lane) {
          var others = Array.prototype.filter.call(lane.querySelectorAll(".card"), function (other) {
            return other !== card;
          });
          if (index < others.length) {
            lane.insertBefore(card, others[index]);
          } else {
            lane.appendChild(card);
          }
          lane.querySelectorAll(".card").forEach(function (other, position) {
            other.dataset.index = String(position);
          });
        }
      }).catch(function () {
        window.location.reload();
      });
    });
  })();
  </script>
</body>
</html>
{{end}}`
