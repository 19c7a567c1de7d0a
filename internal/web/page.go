package web

// indexHTML is the dashboard page. The single %d verb is the refresh
// interval in milliseconds.
const indexHTML = `<!DOCTYPE html>
<html>
<head>
<title>Futures Spread Dashboard</title>
<style>
  body { font-family: monospace; margin: 16px; }
  h3 { margin-bottom: 4px; }
  #last_update { margin: 10px 0; font-weight: bold; }
  table { border-collapse: collapse; width: 100%%; }
  th, td { border: 1px solid #444; padding: 4px; text-align: center; min-width: 70px; }
  th { background: #111; color: #fff; position: sticky; top: 0; }
  td.pos { background: #133d13; color: #fff; }
  td.neg { background: #5a0a0a; color: #fff; }
</style>
</head>
<body>
<h3>Live Futures Spread Dashboard</h3>
<div id="last_update">Loading...</div>
<table>
<thead>
<tr>
  <th>Symbol</th><th>Lot</th><th>Margin</th><th>Charges</th><th>Interest</th>
  <th>Near LTP</th><th>Next LTP</th><th>Far LTP</th>
  <th>NearBuy NextSell</th><th>%%</th>
  <th>NearSell NextBuy</th><th>%%</th>
  <th>NextBuy FarSell</th><th>%%</th>
  <th>NextSell FarBuy</th><th>%%</th>
  <th>NearBuy FarSell</th><th>%%</th>
  <th>NearSell FarBuy</th><th>%%</th>
</tr>
</thead>
<tbody id="rows"></tbody>
</table>
<script>
const REFRESH_MS = %d;

function cell(v, colored) {
  const td = document.createElement("td");
  if (v === null || v === undefined) {
    td.textContent = "";
    return td;
  }
  td.textContent = v;
  if (colored) {
    if (v > 0) td.className = "pos";
    else if (v < 0) td.className = "neg";
  }
  return td;
}

async function refresh() {
  try {
    const resp = await fetch("/api/spreads");
    const data = await resp.json();
    const body = document.getElementById("rows");
    body.replaceChildren();
    for (const r of data.rows) {
      const tr = document.createElement("tr");
      tr.appendChild(cell(r.symbol));
      tr.appendChild(cell(r.lot_size));
      tr.appendChild(cell(r.margin));
      tr.appendChild(cell(r.charges_per_lot));
      tr.appendChild(cell(r.carry_per_lot));
      tr.appendChild(cell(r.near_ltp));
      tr.appendChild(cell(r.next_ltp));
      tr.appendChild(cell(r.far_ltp));
      tr.appendChild(cell(r.near_buy_next_sell, true));
      tr.appendChild(cell(r.near_buy_next_sell_pct));
      tr.appendChild(cell(r.near_sell_next_buy, true));
      tr.appendChild(cell(r.near_sell_next_buy_pct));
      tr.appendChild(cell(r.next_buy_far_sell, true));
      tr.appendChild(cell(r.next_buy_far_sell_pct));
      tr.appendChild(cell(r.next_sell_far_buy, true));
      tr.appendChild(cell(r.next_sell_far_buy_pct));
      tr.appendChild(cell(r.near_buy_far_sell, true));
      tr.appendChild(cell(r.near_buy_far_sell_pct));
      tr.appendChild(cell(r.near_sell_far_buy, true));
      tr.appendChild(cell(r.near_sell_far_buy_pct));
      body.appendChild(tr);
    }
    document.getElementById("last_update").textContent = "Last updated: " + data.updated_at;
  } catch (err) {
    document.getElementById("last_update").textContent = "Error: " + err;
  }
}

refresh();
setInterval(refresh, REFRESH_MS);
</script>
</body>
</html>
`
