package web

import "html/template"

var statusTemplate = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>The Treehouse Hangout</title>
    <script src="https://cdn.tailwindcss.com"></script>
    <style>
        :root {
            --background-color: #1a1a2e;
            --text-color: #e0e0f0;
            --primary-color: #a8dadc;
            --primary-action: #457b9d;
            --danger-color: #e63946;
        }
        body {
            font-family: 'Inter', sans-serif;
            background-color: var(--background-color);
            color: var(--text-color);
            display: flex;
            justify-content: center;
            align-items: center;
            min-height: 100vh;
            padding: 1rem;
        }
        .card {
            background-color: rgba(36, 36, 58, 0.8);
            backdrop-filter: blur(5px);
            border: 2px solid var(--primary-color);
            box-shadow: 0 4px 6px rgba(0, 0, 0, 0.5);
        }
        .btn-primary {
            background-color: var(--primary-action);
            transition: background-color 0.2s;
        }
        .btn-primary:hover { background-color: #2a5a75; }
    </style>
</head>
<body>
    <div class="card p-8 sm:p-10 max-w-lg w-full rounded-xl space-y-8">
        <div class="text-center space-y-3">
            <h1 class="text-4xl font-extrabold text-[var(--primary-action)] tracking-tight">
                THE TREEHOUSE HANGOUT
            </h1>
            <p class="text-xl text-gray-300">
                Your personal space to chill and connect.
            </p>
            <span class="inline-flex items-center px-3 py-1 rounded-full text-xs font-medium {{.StatusColor}} text-white">
                <svg class="w-2 h-2 mr-1.5" fill="currentColor" viewBox="0 0 8 8">
                    <circle cx="4" cy="4" r="3" />
                </svg>
                Aura Status: {{.StatusText}}
            </span>
        </div>

        {{if .InviteURL}}
        <div class="text-center">
            <a href="{{.InviteURL}}" target="_blank" class="btn-primary inline-flex items-center justify-center w-full sm:w-auto px-6 py-3 border border-transparent text-base font-medium rounded-lg shadow-lg text-white hover:shadow-xl transition duration-150 ease-in-out">
                Climb Up to the Treehouse!
            </a>
        </div>
        {{end}}

        <hr class="border-gray-700">

        <div class="text-center text-sm text-gray-500 space-y-2">
            <p class="text-gray-400 font-bold">Aura (The Caretaker) is running the server operations.</p>
            <p>Host Access: <a href="/admin" class="hover:text-[var(--primary-action)] transition text-gray-600 font-medium border-b border-dotted border-gray-600">Caretaker Log-in</a></p>
        </div>
    </div>
</body>
</html>
`))

var dashboardTemplate = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>AURA Operational Hub - Root Access</title>
    <script src="https://cdn.tailwindcss.com"></script>
    <style>
        @import url('https://fonts.googleapis.com/css2?family=Inter:wght@400;600;700;900&display=swap');
        :root {
            --bg-color: #0d1117;
            --card-bg: #161b22;
            --text-color: #e6edf3;
            --primary-action: #58a6ff;
            --danger-color: #f85149;
            --border-color: #30363d;
        }
        body {
            font-family: 'Inter', sans-serif;
            background-color: var(--bg-color);
            color: var(--text-color);
        }
        .card {
            background-color: var(--card-bg);
            border: 1px solid var(--border-color);
        }
        .text-aura-blue { color: var(--primary-action); }
        .bg-aura-blue { background-color: var(--primary-action); }
        .text-danger-color { color: var(--danger-color); }
        .btn-primary {
            background-color: var(--primary-action);
            color: #ffffff;
            transition: background-color 0.15s;
        }
        .btn-primary:hover { background-color: #4b88cc; }
        .marquee-container-header {
            overflow: hidden;
            white-space: nowrap;
            width: 100%;
            margin-bottom: 0.5rem;
            padding-bottom: 0.25rem;
        }
        .marquee-text-header {
            display: inline-block;
            padding-left: 100%;
            animation: marquee 20s linear infinite;
            font-size: 1.25rem;
            font-weight: 700;
            color: #374151;
        }
        @keyframes marquee {
            0%   { transform: translate(0, 0); }
            100% { transform: translate(-100%, 0); }
        }
    </style>
</head>
<body class="p-4 md:p-8">
    <div class="max-w-7xl mx-auto space-y-8">

        <div class="marquee-container-header">
            <div class="marquee-text-header">ROOT ACCESS TERMINAL | AURA OPERATIONAL HUB | PERMANENT RECORD |</div>
        </div>

        <header class="flex flex-col md:flex-row justify-between items-center pb-4 border-b border-aura-blue">
            <h1 class="text-3xl font-extrabold text-aura-blue">AURA Operational Hub</h1>
            <p class="text-sm text-gray-400 mt-2 md:mt-0">Secure Dashboard for Command Staff.</p>
        </header>

        <div class="grid grid-cols-1 sm:grid-cols-2 lg:grid-cols-4 gap-6">
            <div class="card p-5 rounded-lg shadow-lg space-y-2">
                <h2 class="text-sm font-semibold text-gray-400">System Health</h2>
                <p class="text-2xl font-bold">
                    {{if .BotReady}}<span class="text-green-500">OPERATIONAL</span>
                    {{else}}<span class="text-danger-color">OFFLINE</span>{{end}}
                </p>
                <p class="text-xs text-gray-500">Uptime: {{.Uptime}}</p>
            </div>

            <div class="card p-5 rounded-lg shadow-lg space-y-2">
                <h2 class="text-sm font-semibold text-gray-400">Net Agent Change (30D)</h2>
                <p class="text-2xl font-bold {{if ge .NetChange 0}}text-green-500{{else}}text-danger-color{{end}}">
                    {{if ge .NetChange 0}}+{{end}}{{.NetChange}}
                </p>
                <p class="text-xs text-gray-500">Joined: {{.Joined30}} / Left: {{.Left30}}</p>
            </div>

            <div class="card p-5 rounded-lg shadow-lg space-y-2">
                <h2 class="text-sm font-semibold text-gray-400">7-Day Churn Rate</h2>
                <p class="text-2xl font-bold text-danger-color">{{.ChurnRate}}</p>
                <p class="text-xs text-gray-500">Protocol Target: &lt; 5%</p>
            </div>

            <div class="card p-5 rounded-lg shadow-lg space-y-2">
                <h2 class="text-sm font-semibold text-gray-400">Active Data Streams</h2>
                <p class="text-2xl font-bold text-aura-blue">{{.ActiveChatters}}</p>
                <p class="text-xs text-gray-500">Agents chatting in the last 5 min.</p>
            </div>
        </div>

        <div class="grid grid-cols-1 lg:grid-cols-3 gap-6">
            <div class="card p-6 rounded-lg shadow-lg lg:col-span-1">
                <h2 class="text-xl font-bold mb-4 border-b pb-2 border-gray-700 text-white">Top 5 Operational Channels</h2>
                <ul class="space-y-3">
                    {{range .TopChannels}}
                    <li class="flex justify-between items-center text-sm">
                        <span class="text-gray-300 font-medium">#{{.ChannelID}}</span>
                        <span class="text-white bg-aura-blue px-2 py-0.5 rounded-full text-xs">{{.Count}}</span>
                    </li>
                    {{else}}
                    <li class="text-gray-500 text-sm">No message data available yet.</li>
                    {{end}}
                </ul>
                <img src="/admin/data/chart" alt="Channel activity" class="mt-4 w-full rounded-lg" />
            </div>

            <div class="card p-6 rounded-lg shadow-lg lg:col-span-2">
                <h2 class="text-xl font-bold mb-4 border-b pb-2 border-gray-700 text-danger-color">Recent Permanent Record Entries (Last 10)</h2>
                <div class="overflow-x-auto">
                    <table class="min-w-full divide-y divide-gray-700">
                        <thead>
                            <tr>
                                <th class="px-4 py-2 text-left text-xs font-medium text-gray-500 uppercase tracking-wider">Time</th>
                                <th class="px-4 py-2 text-left text-xs font-medium text-gray-500 uppercase tracking-wider">Action</th>
                                <th class="px-4 py-2 text-left text-xs font-medium text-gray-500 uppercase tracking-wider">Target User</th>
                                <th class="px-4 py-2 text-left text-xs font-medium text-gray-500 uppercase tracking-wider">Reason</th>
                            </tr>
                        </thead>
                        <tbody class="divide-y divide-gray-800">
                            {{range .RecentRows}}
                            <tr class="border-b border-gray-700 hover:bg-gray-700/50">
                                <td class="px-4 py-2 text-xs text-gray-400">{{.Time}}</td>
                                <td class="px-4 py-2 font-medium">
                                    <span class="px-2 py-0.5 rounded-full text-xs font-semibold {{.ActionClass}}">{{.Action}}</span>
                                </td>
                                <td class="px-4 py-2 font-mono text-xs">{{.Target}}</td>
                                <td class="px-4 py-2 text-sm text-gray-400 max-w-xs truncate">{{.Reason}}</td>
                            </tr>
                            {{else}}
                            <tr><td colspan="4" class="py-4 text-center text-gray-400">No recent entries in the permanent record.</td></tr>
                            {{end}}
                        </tbody>
                    </table>
                </div>
            </div>
        </div>

        <div class="card p-6 rounded-lg shadow-lg space-y-4">
            <h2 class="text-xl font-bold border-b pb-2 border-gray-700 text-aura-blue">Background Check: Agent Lookup</h2>
            <form method="POST" action="/admin" class="flex flex-col sm:flex-row gap-4">
                <input type="text" name="user_id_search" placeholder="Enter Agent ID or Username (e.g., 12345... or Sentinel)"
                       value="{{.SearchQuery}}"
                       class="flex-grow p-3 rounded-lg bg-gray-700 border border-gray-600 focus:ring-aura-blue focus:border-aura-blue text-white placeholder-gray-400" required>
                <button type="submit" class="btn-primary px-6 py-3 rounded-lg font-bold text-sm shadow-md">
                    Search Permanent Record
                </button>
            </form>

            {{if .Searched}}
            <div class="mt-6">
                <h3 class="text-lg font-semibold mb-3 text-white">Search Results for '{{.SearchQuery}}':</h3>
                <div class="overflow-x-auto">
                    <table class="min-w-full divide-y divide-gray-700">
                        <thead>
                            <tr>
                                <th class="px-4 py-3 text-left text-xs font-medium text-gray-500 uppercase tracking-wider">Time</th>
                                <th class="px-4 py-3 text-left text-xs font-medium text-gray-500 uppercase tracking-wider">Action</th>
                                <th class="px-4 py-3 text-left text-xs font-medium text-gray-500 uppercase tracking-wider">Moderator</th>
                                <th class="px-4 py-3 text-left text-xs font-medium text-gray-500 uppercase tracking-wider">Reason</th>
                            </tr>
                        </thead>
                        <tbody class="divide-y divide-gray-800">
                            {{range .SearchRows}}
                            <tr class="border-b border-gray-700 hover:bg-gray-700/50">
                                <td class="px-4 py-3 text-xs text-gray-400">{{.Time}}</td>
                                <td class="px-4 py-3 font-medium">
                                    <span class="px-2 py-0.5 rounded-full text-xs font-semibold {{.ActionClass}}">{{.Action}}</span>
                                </td>
                                <td class="px-4 py-3 font-mono text-xs">{{.Moderator}}</td>
                                <td class="px-4 py-3 text-sm text-gray-400">{{.Reason}}</td>
                            </tr>
                            {{else}}
                            <tr><td colspan="4" class="py-4 text-center text-gray-400">No disciplinary records found for '{{$.SearchQuery}}'.</td></tr>
                            {{end}}
                        </tbody>
                    </table>
                </div>
            </div>
            {{end}}
        </div>

        <footer class="text-center pt-8 text-gray-500 text-sm">
            AURA Operational Hub v1.0 | Root Access Secured.
        </footer>

    </div>
</body>
</html>
`))
