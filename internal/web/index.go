package web

// indexHTML is the embedded dashboard page: login/register forms, the quote
// list with a sparkline chart for the selected instrument, a refresh button,
// a dismissible error banner and an empty-state retry affordance.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>finboard</title>
<style>
  body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 0; background: #0f172a; color: #e2e8f0; }
  header { display: flex; justify-content: space-between; align-items: center; padding: 12px 24px; background: #1e293b; }
  h1 { font-size: 18px; margin: 0; }
  main { max-width: 960px; margin: 24px auto; padding: 0 16px; }
  button { background: #6366f1; color: white; border: none; border-radius: 6px; padding: 8px 14px; cursor: pointer; }
  button:hover { background: #4f46e5; }
  input { padding: 8px; border-radius: 6px; border: 1px solid #334155; background: #0f172a; color: #e2e8f0; margin: 4px 0; width: 240px; display: block; }
  .card { background: #1e293b; border-radius: 10px; padding: 16px; margin-bottom: 16px; }
  .row { display: flex; justify-content: space-between; padding: 8px 10px; border-radius: 6px; cursor: pointer; }
  .row:hover, .row.selected { background: #334155; }
  .up { color: #4ade80; } .down { color: #f87171; }
  #banner { background: #7f1d1d; color: #fecaca; padding: 10px 16px; border-radius: 8px; margin-bottom: 16px; display: none; }
  #degraded { background: #78350f; color: #fde68a; padding: 8px 16px; border-radius: 8px; margin-bottom: 16px; display: none; }
  #empty { text-align: center; padding: 40px; color: #94a3b8; display: none; }
  #spinner { display: none; color: #94a3b8; }
  canvas { width: 100%; height: 160px; }
</style>
</head>
<body>
<header>
  <h1>finboard</h1>
  <div>
    <span id="spinner">loading…</span>
    <button id="refresh" style="display:none">Refresh</button>
    <button id="logout" style="display:none">Logout</button>
  </div>
</header>
<main>
  <div id="authView" class="card">
    <h2 id="authTitle">Sign in</h2>
    <input id="name" placeholder="Name" style="display:none">
    <input id="email" placeholder="Email" type="email">
    <input id="password" placeholder="Password" type="password">
    <button id="authSubmit">Sign in</button>
    <p><a href="#" id="authToggle" style="color:#818cf8">Create an account</a></p>
    <p id="authError" class="down"></p>
  </div>
  <div id="dashView" style="display:none">
    <div id="banner"><span id="bannerMsg"></span> <button id="dismiss">Dismiss</button></div>
    <div id="degraded">Showing fallback data — the finance API is unreachable.</div>
    <div class="card"><canvas id="chart"></canvas><div id="chartTitle"></div></div>
    <div class="card" id="list"></div>
    <div id="empty" class="card">No quotes yet. <button id="retry">Try again</button></div>
  </div>
</main>
<script>
let token = sessionStorage.getItem("token");
let snapshot = null;
let registering = false;
let stream = null;

const api = (path, opts = {}) => fetch(path, {
  ...opts,
  headers: { "Content-Type": "application/json", "Authorization": "Bearer " + token, ...opts.headers },
});

function show(authenticated) {
  document.getElementById("authView").style.display = authenticated ? "none" : "block";
  document.getElementById("dashView").style.display = authenticated ? "block" : "none";
  document.getElementById("refresh").style.display = authenticated ? "inline" : "none";
  document.getElementById("logout").style.display = authenticated ? "inline" : "none";
}

function render() {
  if (!snapshot) return;
  document.getElementById("spinner").style.display = snapshot.loading ? "inline" : "none";
  document.getElementById("banner").style.display = snapshot.error ? "block" : "none";
  document.getElementById("bannerMsg").textContent = snapshot.error || "";
  document.getElementById("degraded").style.display = snapshot.degraded ? "block" : "none";
  document.getElementById("empty").style.display =
    (!snapshot.items.length && !snapshot.loading) ? "block" : "none";

  const list = document.getElementById("list");
  list.innerHTML = "";
  for (const item of snapshot.items) {
    const row = document.createElement("div");
    const sel = snapshot.selectedItem && snapshot.selectedItem.id === item.id;
    row.className = "row" + (sel ? " selected" : "");
    const v = parseFloat(item.variation);
    row.innerHTML = "<span>" + item.name + "</span><span class='" + (v >= 0 ? "up" : "down") + "'>" +
      parseFloat(item.price).toFixed(2) + " (" + v.toFixed(2) + "%)</span>";
    row.onclick = () => api("/api/finance/select", { method: "POST", body: JSON.stringify({ id: item.id }) });
    list.appendChild(row);
  }
  drawChart(snapshot.selectedItem);
}

function drawChart(item) {
  const canvas = document.getElementById("chart");
  const ctx = canvas.getContext("2d");
  ctx.clearRect(0, 0, canvas.width, canvas.height);
  document.getElementById("chartTitle").textContent = item ? item.name : "";
  if (!item || item.history.length < 2) return;
  const prices = item.history.map(p => parseFloat(p.price));
  const min = Math.min(...prices), max = Math.max(...prices), span = (max - min) || 1;
  ctx.strokeStyle = "#818cf8";
  ctx.beginPath();
  prices.forEach((p, i) => {
    const x = i / (prices.length - 1) * canvas.width;
    const y = canvas.height - ((p - min) / span) * (canvas.height - 10) - 5;
    i ? ctx.lineTo(x, y) : ctx.moveTo(x, y);
  });
  ctx.stroke();
}

function connect() {
  if (stream) stream.close();
  stream = new EventSource("/api/finance/stream?token=" + encodeURIComponent(token));
  stream.addEventListener("snapshot", e => { snapshot = JSON.parse(e.data); render(); });
  stream.onerror = () => { stream.close(); logoutLocal(); };
  api("/api/finance").then(r => r.json()).then(s => { snapshot = s; render(); });
}

function logoutLocal() {
  token = null;
  sessionStorage.removeItem("token");
  if (stream) stream.close();
  show(false);
}

document.getElementById("authToggle").onclick = e => {
  e.preventDefault();
  registering = !registering;
  document.getElementById("name").style.display = registering ? "block" : "none";
  document.getElementById("authTitle").textContent = registering ? "Create account" : "Sign in";
  document.getElementById("authSubmit").textContent = registering ? "Register" : "Sign in";
  document.getElementById("authToggle").textContent = registering ? "I already have an account" : "Create an account";
};

document.getElementById("authSubmit").onclick = async () => {
  const body = {
    name: document.getElementById("name").value,
    email: document.getElementById("email").value,
    password: document.getElementById("password").value,
  };
  const resp = await fetch(registering ? "/api/register" : "/api/login", {
    method: "POST", headers: { "Content-Type": "application/json" }, body: JSON.stringify(body),
  });
  const data = await resp.json();
  if (!resp.ok) { document.getElementById("authError").textContent = data.error; return; }
  token = data.token;
  sessionStorage.setItem("token", token);
  show(true);
  connect();
};

document.getElementById("logout").onclick = async () => { await api("/api/logout", { method: "POST" }); logoutLocal(); };
document.getElementById("refresh").onclick = () => api("/api/finance/refresh", { method: "POST" });
document.getElementById("retry").onclick = () => api("/api/finance/refresh", { method: "POST" });
document.getElementById("dismiss").onclick = () => api("/api/finance/error/clear", { method: "POST" });

if (token) { show(true); connect(); } else { show(false); }
</script>
</body>
</html>`
